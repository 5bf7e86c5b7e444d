package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbot/broker"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"USD/JPY", "USDJPY"},
		{"GBPJPY (OTC)", "GBPJPY_otc"},
		{"EUR/USD (OTC)", "EURUSD_otc"},
		{"EURUSD", "EURUSD"},
		{"BTC/USD", "BTCUSD"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), c.in)
	}
}

func TestRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "GBPJPY", Root("GBPJPY_otc"))
	assert.Equal(t, "EURUSD", Root("EURUSD"))
}

func TestFilter(t *testing.T) {
	t.Parallel()

	s := NewSelector([]string{"EURUSD", "GBPJPY"}, 80)
	quotes := map[string]broker.Quote{
		"EUR/USD":      {Symbol: "EUR/USD", Payout: 85, Open: true},
		"GBPJPY (OTC)": {Symbol: "GBPJPY (OTC)", Payout: 90, Open: true},
		"USD/JPY":      {Symbol: "USD/JPY", Payout: 95, Open: true},       // not allow-listed
		"GBP/JPY":      {Symbol: "GBP/JPY", Payout: 70, Open: true},       // payout too low
		"EURUSD (OTC)": {Symbol: "EURUSD (OTC)", Payout: 88, Open: false}, // closed
	}

	got := s.Filter(quotes)
	assert.Equal(t, map[string]float64{
		"EURUSD":     85,
		"GBPJPY_otc": 90,
	}, got)
}

func TestPickDeterministic(t *testing.T) {
	t.Parallel()

	s := NewSelector([]string{"EURUSD", "GBPJPY"}, 80)
	s.pick = func(int) int { return 1 }

	sym, payout, err := s.Pick(map[string]broker.Quote{
		"EUR/USD": {Symbol: "EUR/USD", Payout: 85, Open: true},
		"GBP/JPY": {Symbol: "GBP/JPY", Payout: 90, Open: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "GBPJPY", sym)
	assert.Equal(t, 90.0, payout)
}

func TestPickNoTradableAsset(t *testing.T) {
	t.Parallel()

	s := NewSelector([]string{"EURUSD"}, 80)
	_, _, err := s.Pick(map[string]broker.Quote{
		"EUR/USD": {Symbol: "EUR/USD", Payout: 75, Open: true},
	})
	require.ErrorIs(t, err, ErrNoTradableAsset)
}
