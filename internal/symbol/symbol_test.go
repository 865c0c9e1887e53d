package symbol

import (
	"errors"
	"testing"
)

func TestParse_Shanghai(t *testing.T) {
	for _, sym := range []string{"600519", "600036", "688981"} {
		sec, err := Parse(sym)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", sym, err)
		}
		if sec.Exchange != ExchangeShanghai {
			t.Errorf("expected SH for %s, got %s", sym, sec.Exchange)
		}
	}
}

func TestParse_Shenzhen(t *testing.T) {
	for _, sym := range []string{"000858", "300750", "002594"} {
		sec, err := Parse(sym)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", sym, err)
		}
		if sec.Exchange != ExchangeShenzhen {
			t.Errorf("expected SZ for %s, got %s", sym, sec.Exchange)
		}
	}
}

func TestParse_TrimsWhitespace(t *testing.T) {
	sec, err := Parse("  600519 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sec.Symbol != "600519" {
		t.Errorf("expected trimmed symbol, got %q", sec.Symbol)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, sym := range []string{"", "60051", "6005199", "ABCDEF", "60051a"} {
		if _, err := Parse(sym); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("expected ErrInvalidSymbol for %q, got %v", sym, err)
		}
	}
}

func TestParse_UnknownExchange(t *testing.T) {
	if _, err := Parse("123456"); !errors.Is(err, ErrUnknownExchange) {
		t.Errorf("expected ErrUnknownExchange, got %v", err)
	}
}

func TestValid(t *testing.T) {
	if !Valid("600519") {
		t.Error("600519 should be valid")
	}
	if Valid("INVALID") {
		t.Error("INVALID should not be valid")
	}
}
