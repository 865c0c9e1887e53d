// Package symbol handles A-share stock symbol validation and exchange
// inference. Symbols are six-digit numeric codes; the leading digits
// determine the listing exchange.
package symbol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Exchanges.
const (
	ExchangeShanghai = "SH"
	ExchangeShenzhen = "SZ"
)

// symbolRegex matches a six-digit A-share code, e.g. 600519.
var symbolRegex = regexp.MustCompile(`^\d{6}$`)

var (
	ErrInvalidSymbol   = errors.New("symbol: invalid stock symbol")
	ErrUnknownExchange = errors.New("symbol: cannot infer exchange")
)

// Security is a parsed, validated stock symbol.
type Security struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"` // "SH" or "SZ"
}

// Parse validates a six-digit A-share symbol and infers its exchange.
//
//	60xxxx, 68xxxx → Shanghai (main board, STAR market)
//	00xxxx, 30xxxx → Shenzhen (main board, ChiNext)
func Parse(sym string) (*Security, error) {
	sym = strings.TrimSpace(sym)
	if !symbolRegex.MatchString(sym) {
		return nil, fmt.Errorf("%w: %q (expected six digits)", ErrInvalidSymbol, sym)
	}

	var exchange string
	switch sym[:2] {
	case "60", "68":
		exchange = ExchangeShanghai
	case "00", "30":
		exchange = ExchangeShenzhen
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, sym)
	}

	return &Security{Symbol: sym, Exchange: exchange}, nil
}

// Valid reports whether sym is a well-formed symbol on a known exchange.
func Valid(sym string) bool {
	_, err := Parse(sym)
	return err == nil
}
