package market

import "strings"

// Commodities is the fixed set of commodity symbols the quote path accepts.
var Commodities = map[string]struct{}{
	"GOLD":   {},
	"SILVER": {},
	"WTI":    {},
	"BRENT":  {},
	"NATGAS": {},
}

// ValidateInstrument checks symbol shape locally. FX pairs must be exactly
// two concatenated ISO currency codes; commodities must be in Commodities.
func ValidateInstrument(inst Instrument) error {
	sym := strings.TrimSpace(inst.Symbol)
	switch inst.Kind {
	case Equity:
		if sym == "" {
			return &InvalidSymbolError{Symbol: inst.Symbol, Reason: "empty ticker"}
		}
	case FXPair:
		if len(sym) != 6 || !isAlpha(sym) {
			return &InvalidSymbolError{Symbol: inst.Symbol, Reason: "fx pair must be 6 alphabetic characters, e.g. EURUSD"}
		}
	case Commodity:
		if _, ok := Commodities[strings.ToUpper(sym)]; !ok {
			return &InvalidSymbolError{Symbol: inst.Symbol, Reason: "unknown commodity (GOLD, SILVER, WTI, BRENT, NATGAS)"}
		}
	default:
		return &InvalidSymbolError{Symbol: inst.Symbol, Reason: "unknown instrument kind " + string(inst.Kind)}
	}
	return nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
