// Package asset turns the broker's raw payout table into tradable
// candidates and picks one for the cycle.
package asset

import (
	"errors"
	"math/rand"
	"sort"
	"strings"

	"ladderbot/broker"
)

// ErrNoTradableAsset means no quote survived normalization and filtering;
// the cycle aborts before any order is placed.
var ErrNoTradableAsset = errors.New("no tradable asset above payout threshold")

const otcSuffix = " (OTC)"

// Normalize maps a broker symbol to its canonical form: slash separators are
// stripped ("USD/JPY" -> "USDJPY") and the OTC marker becomes an "_otc"
// suffix ("GBPJPY (OTC)" -> "GBPJPY_otc").
func Normalize(symbol string) string {
	otc := strings.HasSuffix(symbol, otcSuffix)
	if otc {
		symbol = strings.TrimSuffix(symbol, otcSuffix)
	}
	symbol = strings.ReplaceAll(symbol, "/", "")
	symbol = strings.TrimSpace(symbol)
	if otc {
		symbol += "_otc"
	}
	return symbol
}

// Root returns the non-OTC root of a normalized symbol.
func Root(normalized string) string {
	return strings.TrimSuffix(normalized, "_otc")
}

// Selector filters quotes by allow-list and minimum payout.
type Selector struct {
	minPayout float64
	allowed   map[string]struct{}

	// pick chooses an index in [0,n); overridable in tests.
	pick func(n int) int
}

// NewSelector builds a selector. allowed lists the permitted non-OTC symbol
// roots; minPayout is the payout floor in percent.
func NewSelector(allowed []string, minPayout float64) *Selector {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[Normalize(a)] = struct{}{}
	}
	return &Selector{
		minPayout: minPayout,
		allowed:   set,
		pick:      rand.Intn,
	}
}

// Filter normalizes the quote table and retains open quotes whose root is
// allow-listed and whose payout meets the floor. Keys of the result are
// normalized symbols.
func (s *Selector) Filter(quotes map[string]broker.Quote) map[string]float64 {
	out := make(map[string]float64)
	for symbol, q := range quotes {
		if !q.Open || q.Payout < s.minPayout {
			continue
		}
		norm := Normalize(symbol)
		if _, ok := s.allowed[Root(norm)]; !ok {
			continue
		}
		out[norm] = q.Payout
	}
	return out
}

// Pick filters the table and chooses one candidate uniformly at random.
// Callers must not assume a stable choice between runs.
func (s *Selector) Pick(quotes map[string]broker.Quote) (symbol string, payout float64, err error) {
	candidates := s.Filter(quotes)
	if len(candidates) == 0 {
		return "", 0, ErrNoTradableAsset
	}

	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	symbol = keys[s.pick(len(keys))]
	return symbol, candidates[symbol], nil
}
