package ledger

import (
	"context"
	"database/sql"
	"time"

	"ladderbot/account"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Upsert(ctx context.Context, t TradeAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(account_id, trade_id, asset, direction, stake, payout_percent, open_time, close_time, outcome, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, trade_id) DO UPDATE SET
			outcome = excluded.outcome,
			result = excluded.result,
			close_time = excluded.close_time`,
		t.AccountID, t.TradeID, t.Asset, t.Direction, t.Stake, t.PayoutPercent,
		t.OpenTime, t.CloseTime, string(t.Outcome), t.Result,
	)
	return err
}

func (s *SQLite) RecentSettled(ctx context.Context, accountID int64, limit int) ([]TradeAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, trade_id, asset, direction, stake, payout_percent, open_time, close_time, outcome, result
		FROM trades
		WHERE account_id = ? AND outcome IN ('WIN','LOSS','TIE')
		ORDER BY close_time DESC, trade_id DESC
		LIMIT ?`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (s *SQLite) SumSettled(ctx context.Context, accountID int64) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(result) FROM trades
		WHERE account_id = ? AND outcome IN ('WIN','LOSS')`,
		accountID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (s *SQLite) Account(ctx context.Context, id int64) (account.Account, error) {
	var a account.Account
	var exp sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, mode, currency, demo_balance, real_balance, active, bot_active, test_period, test_expiration
		FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Email, &a.Mode, &a.Currency, &a.DemoBalance, &a.RealBalance,
		&a.Active, &a.BotActive, &a.TestPeriod, &exp)
	if err != nil {
		return account.Account{}, err
	}
	if exp.Valid {
		a.TestExpiration = exp.Time
	}
	return a, nil
}

func (s *SQLite) Profile(ctx context.Context, accountID int64) (account.RiskProfile, error) {
	var p account.RiskProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, entry_value, entry_percent, stop_gain, stop_loss, max_martingale, factor
		FROM profiles WHERE account_id = ?`, accountID,
	).Scan(&p.Kind, &p.EntryValue, &p.EntryPercent, &p.StopGain, &p.StopLoss,
		&p.MaxMartingale, &p.Factor)
	if err != nil {
		return account.RiskProfile{}, err
	}
	return p, nil
}

func (s *SQLite) ListEligible(ctx context.Context) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, mode, currency, demo_balance, real_balance, active, bot_active, test_period, test_expiration
		FROM accounts WHERE active = 1 AND bot_active = 1
		ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []account.Account
	for rows.Next() {
		var a account.Account
		var exp sql.NullTime
		if err := rows.Scan(&a.ID, &a.Email, &a.Mode, &a.Currency, &a.DemoBalance,
			&a.RealBalance, &a.Active, &a.BotActive, &a.TestPeriod, &exp); err != nil {
			return nil, err
		}
		if exp.Valid {
			a.TestExpiration = exp.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) SaveBalances(ctx context.Context, a account.Account) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET demo_balance = ?, real_balance = ? WHERE id = ?`,
		a.DemoBalance, a.RealBalance, a.ID,
	)
	return err
}

func (s *SQLite) SetFlags(ctx context.Context, id int64, active, botActive bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET active = ?, bot_active = ? WHERE id = ?`,
		active, botActive, id,
	)
	return err
}

// SeedAccount inserts or replaces an account and its profile. Used by the
// CLI demo and by tests; production accounts are provisioned externally.
func (s *SQLite) SeedAccount(ctx context.Context, a account.Account, p account.RiskProfile) error {
	var exp any
	if !a.TestExpiration.IsZero() {
		exp = a.TestExpiration.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO accounts
		(id, email, mode, currency, demo_balance, real_balance, active, bot_active, test_period, test_expiration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, string(a.Mode), a.Currency, a.DemoBalance, a.RealBalance,
		a.Active, a.BotActive, a.TestPeriod, exp,
	)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles
		(account_id, kind, entry_value, entry_percent, stop_gain, stop_loss, max_martingale, factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(p.Kind), p.EntryValue, p.EntryPercent, p.StopGain, p.StopLoss,
		p.MaxMartingale, p.Factor,
	)
	return err
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAttempts(rows rowScanner) ([]TradeAttempt, error) {
	var out []TradeAttempt
	for rows.Next() {
		var t TradeAttempt
		var outcome string
		if err := rows.Scan(&t.AccountID, &t.TradeID, &t.Asset, &t.Direction,
			&t.Stake, &t.PayoutPercent, &t.OpenTime, &t.CloseTime, &outcome, &t.Result); err != nil {
			return nil, err
		}
		t.Outcome = Outcome(outcome)
		out = append(out, t)
	}
	return out, rows.Err()
}
