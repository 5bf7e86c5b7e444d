package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ladderbot/account"
)

// Memory is an in-memory Store used by tests and the demo command.
type Memory struct {
	mu       sync.Mutex
	trades   map[int64]map[string]TradeAttempt
	accounts map[int64]account.Account
	profiles map[int64]account.RiskProfile
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		trades:   make(map[int64]map[string]TradeAttempt),
		accounts: make(map[int64]account.Account),
		profiles: make(map[int64]account.RiskProfile),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Upsert(_ context.Context, t TradeAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.trades[t.AccountID]
	if !ok {
		byID = make(map[string]TradeAttempt)
		m.trades[t.AccountID] = byID
	}
	byID[t.TradeID] = t
	return nil
}

func (m *Memory) RecentSettled(_ context.Context, accountID int64, limit int) ([]TradeAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []TradeAttempt
	for _, t := range m.trades[accountID] {
		if t.Outcome.Settled() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CloseTime.Equal(out[j].CloseTime) {
			return out[i].CloseTime.After(out[j].CloseTime)
		}
		return out[i].TradeID > out[j].TradeID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SumSettled(_ context.Context, accountID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	for _, t := range m.trades[accountID] {
		if t.Outcome == Win || t.Outcome == Loss {
			total += t.Result
		}
	}
	return total, nil
}

func (m *Memory) Account(_ context.Context, id int64) (account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, fmt.Errorf("account %d not found", id)
	}
	return a, nil
}

func (m *Memory) Profile(_ context.Context, accountID int64) (account.RiskProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[accountID]
	if !ok {
		return account.RiskProfile{}, fmt.Errorf("profile for account %d not found", accountID)
	}
	return p, nil
}

func (m *Memory) ListEligible(_ context.Context) ([]account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []account.Account
	for _, a := range m.accounts {
		if a.Active && a.BotActive {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveBalances(_ context.Context, a account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accounts[a.ID]
	if !ok {
		return fmt.Errorf("account %d not found", a.ID)
	}
	cur.DemoBalance = a.DemoBalance
	cur.RealBalance = a.RealBalance
	m.accounts[a.ID] = cur
	return nil
}

func (m *Memory) SetFlags(_ context.Context, id int64, active, botActive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("account %d not found", id)
	}
	cur.Active = active
	cur.BotActive = botActive
	m.accounts[id] = cur
	return nil
}

// SeedAccount stores an account and profile directly.
func (m *Memory) SeedAccount(_ context.Context, a account.Account, p account.RiskProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	m.profiles[a.ID] = p
	return nil
}
