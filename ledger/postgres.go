package ledger

import (
	"context"
	"database/sql"

	"ladderbot/account"

	_ "github.com/lib/pq"
)

// Postgres implements Store on PostgreSQL, the backend the hosted deployment
// runs against.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects with a lib/pq connection string, pings, and applies
// the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error { return s.db.Close() }

func (s *Postgres) Upsert(ctx context.Context, t TradeAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(account_id, trade_id, asset, direction, stake, payout_percent, open_time, close_time, outcome, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id, trade_id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			result = EXCLUDED.result,
			close_time = EXCLUDED.close_time`,
		t.AccountID, t.TradeID, t.Asset, t.Direction, t.Stake, t.PayoutPercent,
		t.OpenTime, t.CloseTime, string(t.Outcome), t.Result,
	)
	return err
}

func (s *Postgres) RecentSettled(ctx context.Context, accountID int64, limit int) ([]TradeAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, trade_id, asset, direction, stake, payout_percent, open_time, close_time, outcome, result
		FROM trades
		WHERE account_id = $1 AND outcome IN ('WIN','LOSS','TIE')
		ORDER BY close_time DESC, trade_id DESC
		LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (s *Postgres) SumSettled(ctx context.Context, accountID int64) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(result) FROM trades
		WHERE account_id = $1 AND outcome IN ('WIN','LOSS')`,
		accountID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (s *Postgres) Account(ctx context.Context, id int64) (account.Account, error) {
	var a account.Account
	var exp sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, mode, currency, demo_balance, real_balance, active, bot_active, test_period, test_expiration
		FROM accounts WHERE id = $1`, id,
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

func (s *Postgres) Profile(ctx context.Context, accountID int64) (account.RiskProfile, error) {
	var p account.RiskProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, entry_value, entry_percent, stop_gain, stop_loss, max_martingale, factor
		FROM profiles WHERE account_id = $1`, accountID,
	).Scan(&p.Kind, &p.EntryValue, &p.EntryPercent, &p.StopGain, &p.StopLoss,
		&p.MaxMartingale, &p.Factor)
	if err != nil {
		return account.RiskProfile{}, err
	}
	return p, nil
}

func (s *Postgres) ListEligible(ctx context.Context) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, mode, currency, demo_balance, real_balance, active, bot_active, test_period, test_expiration
		FROM accounts WHERE active AND bot_active
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

func (s *Postgres) SaveBalances(ctx context.Context, a account.Account) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET demo_balance = $1, real_balance = $2 WHERE id = $3`,
		a.DemoBalance, a.RealBalance, a.ID,
	)
	return err
}

func (s *Postgres) SetFlags(ctx context.Context, id int64, active, botActive bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET active = $1, bot_active = $2 WHERE id = $3`,
		active, botActive, id,
	)
	return err
}
