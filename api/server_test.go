package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/tradejournal/enrich"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/marketdata"
)

func fixedNow() time.Time { return time.Date(2024, 7, 25, 12, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, repo journal.Repository) (*httptest.Server, *marketdata.Adapter) {
	t.Helper()

	if repo == nil {
		repo = journal.NewMemory()
	}
	quotes := marketdata.NewAdapter(marketdata.NewDemoStatic(), marketdata.Options{})
	svc := enrich.NewService(repo, quotes, enrich.Options{Now: fixedNow})
	srv := httptest.NewServer(NewServer(svc, quotes, nil, Config{Version: "test"}).Handler())
	t.Cleanup(srv.Close)
	return srv, quotes
}

func postTrade(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/trades", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAddAndGetTrade(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	resp := postTrade(t, srv, `{"date":"2024-07-20","time":"09:30:05","ticker":"aapl","type":"buy","price":150.50,"quantity":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var created journal.Trade
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "AAPL", created.Ticker)
	assert.Equal(t, market.Buy, created.Type)
	require.NotNil(t, created.Rating)
	assert.InDelta(t, -0.333, *created.Rating, 1e-3)

	var fetched journal.Trade
	status := getJSON(t, srv.URL+"/api/trades/"+created.ID, &fetched)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, *created.Rating, *fetched.Rating)
}

func TestAddTradeValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	resp := postTrade(t, srv, `{"date":"2024-07-20","time":"09:30:05","ticker":"","type":"Buy","price":0,"quantity":10}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid trade", body.Error)
	assert.Equal(t, "required", body.Fields["ticker"])
	assert.Equal(t, "must be a finite number greater than 0", body.Fields["price"])

	var list TradesResponse
	getJSON(t, srv.URL+"/api/trades", &list)
	assert.Empty(t, list.Trades)
}

func TestAddTradeBadJSON(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	resp := postTrade(t, srv, `{"price":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	var body ErrorResponse
	status := getJSON(t, srv.URL+"/api/trades/nope", &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "trade not found", body.Error)
}

func TestListTrades(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	for i, p := range []float64{10, 30, 20, 50, 40} {
		body := fmt.Sprintf(`{"date":"2024-07-20","time":"10:00:0%d","ticker":"AAPL","type":"Buy","price":%g,"quantity":1}`, i, p)
		require.Equal(t, http.StatusCreated, postTrade(t, srv, body).StatusCode)
	}

	var page TradesResponse
	status := getJSON(t, srv.URL+"/api/trades?sortKey=price&sortDirection=ascending&page=2&limit=2", &page)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, page.Trades, 2)
	assert.Equal(t, 30.0, page.Trades[0].Price)
	assert.Equal(t, 40.0, page.Trades[1].Price)
	assert.True(t, page.HasMore)

	var byDate TradesResponse
	getJSON(t, srv.URL+"/api/trades", &byDate)
	require.Len(t, byDate.Trades, 5)
	assert.Equal(t, "10:00:04", byDate.Trades[0].Time)
	assert.False(t, byDate.HasMore)
}

func TestListTradesBadParams(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	for _, qs := range []string{
		"sortKey=color",
		"sortDirection=sideways",
		"page=two",
		"page=-1",
		"limit=0x",
		"limit=-5",
		"from=yesterday",
	} {
		t.Run(qs, func(t *testing.T) {
			status := getJSON(t, srv.URL+"/api/trades?"+qs, nil)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

type downRepo struct{ journal.Repository }

var errDown = fmt.Errorf("%w: disk I/O error", journal.ErrStorage)

func (downRepo) ListAll(context.Context) ([]journal.Trade, error) { return nil, errDown }
func (downRepo) Insert(context.Context, journal.Trade) (journal.Trade, error) {
	return journal.Trade{}, errDown
}
func (downRepo) GetByID(context.Context, string) (journal.Trade, error) {
	return journal.Trade{}, errDown
}

func TestStorageErrorsAre500(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, downRepo{})

	var body ErrorResponse
	status := getJSON(t, srv.URL+"/api/trades", &body)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, body.Message, "disk")

	assert.Equal(t, http.StatusInternalServerError, getJSON(t, srv.URL+"/api/trades/x", nil))
	assert.Equal(t, http.StatusInternalServerError, getJSON(t, srv.URL+"/api/pnl", nil))

	resp := postTrade(t, srv, `{"date":"2024-07-20","time":"09:30:05","ticker":"AAPL","type":"Buy","price":1,"quantity":1}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetQuote(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	var q QuoteResponse
	status := getJSON(t, srv.URL+"/api/ohlc?ticker=aapl&date=2024-07-20", &q)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, q.Available)
	assert.Equal(t, "AAPL", q.Ticker)
	assert.Equal(t, market.Quote{Open: 149.80, High: 151.00, Low: 149.50, Close: 150.75}, q.Quote)

	var missing QuoteResponse
	getJSON(t, srv.URL+"/api/ohlc?ticker=XYZ&date=2024-01-01", &missing)
	assert.False(t, missing.Available)
	assert.True(t, missing.Quote.IsSentinel())

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/ohlc?ticker=AAPL", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/ohlc?ticker=AAPL&date=07-20", nil))
}

func TestGetPnL(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	for _, body := range []string{
		`{"date":"2024-07-20","time":"09:30:05","ticker":"AAPL","type":"Buy","price":150.50,"quantity":10}`,
		`{"date":"2024-07-21","time":"14:05:00","ticker":"AAPL","type":"Sell","price":155.25,"quantity":10}`,
		`{"date":"2024-07-22","time":"11:00:00","ticker":"TSLA","type":"Buy","price":650,"quantity":5}`,
	} {
		require.Equal(t, http.StatusCreated, postTrade(t, srv, body).StatusCode)
	}

	var all PnLResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/pnl", &all))
	assert.InDelta(t, 1552.5-1505-3250, all.Net, 1e-9)
	assert.Equal(t, 2, all.Buys)

	var window PnLResponse
	getJSON(t, srv.URL+"/api/pnl?from=2024-07-20&to=2024-07-21", &window)
	assert.InDelta(t, 47.5, window.Net, 1e-9)
	assert.Equal(t, "2024-07-20", window.From)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/pnl?to=soon", nil))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, quotes := newTestServer(t, nil)
	quotes.Quote(context.Background(), "AAPL", "2024-07-20")

	var h HealthResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)
	require.NotNil(t, h.MarketData)
	assert.Equal(t, uint64(1), h.MarketData.Misses)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/trades", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	h := recoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	quotes := marketdata.NewAdapter(marketdata.NewDemoStatic(), marketdata.Options{})
	svc := enrich.NewService(journal.NewMemory(), quotes, enrich.Options{Now: fixedNow})
	s := NewServer(svc, quotes, nil, Config{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRespondServiceErrorUnknown(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, nil, nil, Config{})
	rec := httptest.NewRecorder()
	s.respondServiceError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRespondJSONEncodeFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	s := NewServer(nil, nil, zap.New(core), Config{})

	rec := httptest.NewRecorder()
	s.respondJSON(rec, http.StatusOK, map[string]float64{"price": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	require.Equal(t, 1, logs.FilterMessage("encode response failed").Len())
}

func TestRespondErrorBody(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, nil, nil, Config{})
	rec := httptest.NewRecorder()
	s.respondError(rec, http.StatusBadRequest, "invalid page", "\"x\" is not an integer")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid page", body.Error)
	assert.Equal(t, "\"x\" is not an integer", body.Message)
}
