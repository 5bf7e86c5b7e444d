// Package sim provides a scripted broker session for tests and demo runs.
// Outcomes are consumed in order, one per placed order, so a test can walk a
// martingale sequence deterministically.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ladderbot/broker"
)

// Result scripts the settlement of one placed order.
type Result int

const (
	Win Result = iota
	Loss
	Tie
)

// Script seeds a Session.
type Script struct {
	Balance float64
	Quotes  map[string]broker.Quote

	// Results settle placed orders in order. Placing more orders than
	// scripted results settles them as Tie.
	Results []Result

	// Dwell is applied to every OrderRef (CloseTime = OpenTime + Dwell).
	Dwell time.Duration

	// ConnectFailures makes the first N Connect calls fail transiently.
	ConnectFailures int

	// PlaceFailures makes the first N PlaceOrder calls fail transiently.
	PlaceFailures int

	// UnsettledPolls makes each order report unsettled for its first N
	// Outcome polls.
	UnsettledPolls int

	// AuthFail makes every Connect fail with an AuthError.
	AuthFail bool

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

type order struct {
	req     broker.OrderRequest
	result  Result
	polls   int
	applied bool
}

// Session is a scripted in-memory broker.Session.
type Session struct {
	mu sync.Mutex

	script    Script
	connected bool
	balance   float64
	placed    int
	connects  int
	orders    map[string]*order
}

var _ broker.Session = (*Session)(nil)

// New builds a session from a script.
func New(script Script) *Session {
	if script.Now == nil {
		script.Now = time.Now
	}
	return &Session{
		script:  script,
		balance: script.Balance,
		orders:  make(map[string]*order),
	}
}

func (s *Session) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.script.AuthFail {
		return &broker.AuthError{Reason: "invalid credentials"}
	}
	s.connects++
	if s.connects <= s.script.ConnectFailures {
		return &broker.ConnectionError{Err: errors.New("scripted connect failure")}
	}
	s.connected = true
	return nil
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) Balance(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0, &broker.ConnectionError{Err: errors.New("not connected")}
	}
	return s.balance, nil
}

func (s *Session) Quotes(_ context.Context) (map[string]broker.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, &broker.ConnectionError{Err: errors.New("not connected")}
	}
	out := make(map[string]broker.Quote, len(s.script.Quotes))
	for k, v := range s.script.Quotes {
		out[k] = v
	}
	return out, nil
}

func (s *Session) PlaceOrder(_ context.Context, req broker.OrderRequest) (broker.OrderRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return broker.OrderRef{}, &broker.ConnectionError{Err: errors.New("not connected")}
	}
	if s.script.PlaceFailures > 0 {
		s.script.PlaceFailures--
		return broker.OrderRef{}, &broker.ConnectionError{Err: errors.New("scripted place failure")}
	}

	res := Tie
	if s.placed < len(s.script.Results) {
		res = s.script.Results[s.placed]
	}
	s.placed++

	id := fmt.Sprintf("SIM-%04d", s.placed)
	s.orders[id] = &order{req: req, result: res}
	s.balance -= req.Stake

	open := s.script.Now()
	return broker.OrderRef{
		ID:        id,
		OpenTime:  open,
		CloseTime: open.Add(s.script.Dwell),
	}, nil
}

func (s *Session) Outcome(_ context.Context, orderID string) (broker.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return broker.Outcome{}, fmt.Errorf("unknown order %q", orderID)
	}
	o.polls++
	if o.polls <= s.script.UnsettledPolls {
		return broker.Outcome{Settled: false}, nil
	}

	var out broker.Outcome
	var credit float64
	switch o.result {
	case Win:
		profit := o.req.Stake * quotePayout(s.script.Quotes, o.req.Asset) / 100
		out = broker.Outcome{Settled: true, Win: true, Profit: profit}
		credit = o.req.Stake + profit
	case Tie:
		out = broker.Outcome{Settled: true, Win: false, Profit: 0}
		credit = o.req.Stake
	default:
		out = broker.Outcome{Settled: true, Win: false, Profit: -o.req.Stake}
	}
	if !o.applied {
		s.balance += credit
		o.applied = true
	}
	return out, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Placed reports how many orders have been accepted.
func (s *Session) Placed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placed
}

// CurrentBalance exposes the simulated balance for assertions.
func (s *Session) CurrentBalance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func quotePayout(quotes map[string]broker.Quote, asset string) float64 {
	if q, ok := quotes[asset]; ok {
		return q.Payout
	}
	return 80
}
