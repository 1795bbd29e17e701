// Package api exposes the trade journal over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradejournal/enrich"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/marketdata"
	"github.com/rustyeddy/tradejournal/pkg/logger"
	"github.com/rustyeddy/tradejournal/query"
)

const maxBodyBytes = 1 << 20

// Config holds the listener settings.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Version         string
}

// Server handles the REST API.
type Server struct {
	svc    *enrich.Service
	quotes enrich.QuoteSource
	log    *zap.Logger
	cfg    Config
	router *mux.Router
}

// NewServer wires the routes. quotes serves /api/ohlc; when it also reports
// marketdata.Stats they are included in /health.
func NewServer(svc *enrich.Service, quotes enrich.QuoteSource, log *zap.Logger, cfg Config) *Server {
	s := &Server{
		svc:    svc,
		quotes: quotes,
		log:    logger.OrNop(log).Named("api"),
		cfg:    cfg,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/trades", s.handleListTrades).Methods("GET")
	api.HandleFunc("/trades", s.handleAddTrade).Methods("POST")
	api.HandleFunc("/trades/{id}", s.handleGetTrade).Methods("GET")
	api.HandleFunc("/ohlc", s.handleGetQuote).Methods("GET")
	api.HandleFunc("/pnl", s.handleGetPnL).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Use(loggingMiddleware(s.log))
	s.router.Use(recoveryMiddleware(s.log))
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cfg, err := query.ParseSortConfig(q.Get("sortKey"), q.Get("sortDirection"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid sort", err.Error())
		return
	}
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid page", err.Error())
		return
	}
	limit, err := intParam(q.Get("limit"), enrich.DefaultPageSize)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}
	from, to, ok := s.dateRange(w, r)
	if !ok {
		return
	}

	result, err := s.svc.List(r.Context(), enrich.ListRequest{
		Sort:     cfg,
		Page:     page,
		PageSize: limit,
		From:     from,
		To:       to,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, TradesResponse{Trades: result.Trades, HasMore: result.HasMore})
}

func (s *Server) handleAddTrade(w http.ResponseWriter, r *http.Request) {
	var draft journal.Draft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&draft); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trade, err := s.svc.Submit(r.Context(), draft)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, trade)
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	trade, err := s.svc.FetchEnriched(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trade)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	ticker := market.NormalizeTicker(r.URL.Query().Get("ticker"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if ticker == "" || date == "" {
		s.respondError(w, http.StatusBadRequest, "ticker and date query parameters are required", "")
		return
	}
	if _, err := market.ParseDate(date); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	q := s.quotes.Quote(r.Context(), ticker, date)
	s.respondJSON(w, http.StatusOK, QuoteResponse{
		Ticker:    ticker,
		Date:      date,
		Available: !q.IsSentinel(),
		Quote:     q,
	})
}

func (s *Server) handleGetPnL(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.dateRange(w, r)
	if !ok {
		return
	}

	trades, err := s.svc.All(r.Context(), from, to)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, PnLResponse{From: from, To: to, PnL: journal.Summarize(trades)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Service: "tradejournal", Version: s.cfg.Version}
	if st, ok := s.quotes.(interface{ Stats() marketdata.Stats }); ok {
		stats := st.Stats()
		resp.MarketData = &stats
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondServiceError maps pipeline errors onto status codes. Storage
// details are logged, never returned.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *enrich.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid trade",
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, journal.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "trade not found", "")
	case errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, query.ErrInvalidSortKey),
		errors.Is(err, query.ErrInvalidDirection):
		s.respondError(w, http.StatusBadRequest, "invalid query", err.Error())
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (s *Server) dateRange(w http.ResponseWriter, r *http.Request) (from, to string, ok bool) {
	from = strings.TrimSpace(r.URL.Query().Get("from"))
	to = strings.TrimSpace(r.URL.Query().Get("to"))
	for _, v := range []string{from, to} {
		if v == "" {
			continue
		}
		if _, err := market.ParseDate(v); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid date filter", err.Error())
			return "", "", false
		}
	}
	return from, to, true
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return n, nil
}

// respondJSON writes data as JSON. A value that cannot be encoded is logged
// and answered with a 500.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.Error("encode response failed", zap.Int("status", status), zap.Error(err))
		body, status = []byte(`{"error":"internal server error"}`), http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Debug("write response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}
