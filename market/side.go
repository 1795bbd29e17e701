package market

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "Buy"
	Sell Side = "Sell"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade type %q (want Buy|Sell)", s)
	}
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

func (s Side) String() string {
	return string(s)
}

// UnmarshalJSON normalizes the case of the incoming value. Unknown values are
// kept verbatim so validation can report them per field.
func (s *Side) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if parsed, err := ParseSide(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = Side(raw)
	return nil
}
