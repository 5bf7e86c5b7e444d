package broker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var errNotConnected = errors.New("session reports not connected")

// DialerOptions tunes the retry and throttling behavior of a Dialer.
type DialerOptions struct {
	// ConnectAttempts is the total number of Connect tries before giving
	// up. Zero means 3.
	ConnectAttempts int

	// RetryDelay is the fixed pause between Connect attempts. The delay is
	// deliberately constant, not exponential; tune it via configuration.
	// Zero means 1s.
	RetryDelay time.Duration

	// RequestsPerSec caps calls against the broker endpoint. Zero means 5.
	RequestsPerSec int
}

func (o DialerOptions) withDefaults() DialerOptions {
	if o.ConnectAttempts == 0 {
		o.ConnectAttempts = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = time.Second
	}
	if o.RequestsPerSec == 0 {
		o.RequestsPerSec = 5
	}
	return o
}

// Dialer wraps a Session with bounded connect retries and request rate
// limiting. It implements Session itself so callers hold a single handle.
type Dialer struct {
	sess    Session
	opts    DialerOptions
	limiter *rate.Limiter
	log     zerolog.Logger
}

var _ Session = (*Dialer)(nil)

// NewDialer wraps sess. The zero DialerOptions value gets sensible defaults.
func NewDialer(sess Session, opts DialerOptions, log zerolog.Logger) *Dialer {
	opts = opts.withDefaults()
	return &Dialer{
		sess:    sess,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		log:     log,
	}
}

// Connect authenticates with a bounded number of attempts separated by a
// fixed delay. An AuthError aborts immediately after discarding the cached
// session; exhausting the budget returns the last error.
func (d *Dialer) Connect(ctx context.Context) error {
	attempt := 0
	op := func() error {
		attempt++
		err := d.sess.Connect(ctx)
		if err == nil && d.sess.IsConnected() {
			return nil
		}
		if err == nil {
			err = &ConnectionError{Err: errNotConnected}
		}
		if !IsTransient(err) {
			// Terminal: drop session artifacts so the next Connect
			// re-authenticates from scratch.
			_ = d.sess.Close()
			return backoff.Permanent(err)
		}
		d.log.Warn().Int("attempt", attempt).Err(err).Msg("broker connect failed")
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(d.opts.RetryDelay),
			uint64(d.opts.ConnectAttempts-1),
		),
		ctx,
	)
	return backoff.Retry(op, policy)
}

// Reconnect re-establishes the session if it has dropped.
func (d *Dialer) Reconnect(ctx context.Context) error {
	if d.sess.IsConnected() {
		return nil
	}
	return d.Connect(ctx)
}

func (d *Dialer) IsConnected() bool { return d.sess.IsConnected() }

func (d *Dialer) Balance(ctx context.Context) (float64, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return d.sess.Balance(ctx)
}

func (d *Dialer) Quotes(ctx context.Context) (map[string]Quote, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.sess.Quotes(ctx)
}

func (d *Dialer) PlaceOrder(ctx context.Context, req OrderRequest) (OrderRef, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return OrderRef{}, err
	}
	return d.sess.PlaceOrder(ctx, req)
}

func (d *Dialer) Outcome(ctx context.Context, orderID string) (Outcome, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return Outcome{}, err
	}
	return d.sess.Outcome(ctx, orderID)
}

func (d *Dialer) Close() error { return d.sess.Close() }
