package broker_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbot/broker"
	"ladderbot/broker/sim"
)

func TestConnectRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	sess := sim.New(sim.Script{Balance: 100, ConnectFailures: 2})
	d := broker.NewDialer(sess, broker.DialerOptions{ConnectAttempts: 3, RetryDelay: 1}, zerolog.Nop())

	require.NoError(t, d.Connect(context.Background()))
	assert.True(t, d.IsConnected())
}

func TestConnectGivesUpAfterBudget(t *testing.T) {
	t.Parallel()

	sess := sim.New(sim.Script{Balance: 100, ConnectFailures: 10})
	d := broker.NewDialer(sess, broker.DialerOptions{ConnectAttempts: 3, RetryDelay: 1}, zerolog.Nop())

	err := d.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, broker.IsTransient(err))
	assert.False(t, d.IsConnected())
}

func TestConnectAuthFailureIsTerminal(t *testing.T) {
	t.Parallel()

	sess := sim.New(sim.Script{Balance: 100, AuthFail: true})
	d := broker.NewDialer(sess, broker.DialerOptions{ConnectAttempts: 5, RetryDelay: 1}, zerolog.Nop())

	err := d.Connect(context.Background())
	require.Error(t, err)

	var authErr *broker.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, broker.IsTransient(err))
}

func TestReconnectNoopWhenConnected(t *testing.T) {
	t.Parallel()

	sess := sim.New(sim.Script{Balance: 100, ConnectFailures: 1})
	d := broker.NewDialer(sess, broker.DialerOptions{ConnectAttempts: 3, RetryDelay: 1}, zerolog.Nop())

	require.NoError(t, d.Connect(context.Background()))
	// A reconnect on a live session must not consume another scripted
	// failure.
	require.NoError(t, d.Reconnect(context.Background()))
}

func TestCallsRequireConnection(t *testing.T) {
	t.Parallel()

	sess := sim.New(sim.Script{Balance: 100})
	d := broker.NewDialer(sess, broker.DialerOptions{}, zerolog.Nop())

	_, err := d.Balance(context.Background())
	require.Error(t, err)
	assert.True(t, broker.IsTransient(err))
}
