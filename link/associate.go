package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

var ErrJoinTimeout = errors.New("wifi association timed out")

var errNotAssociated = errors.New("not associated")

// Policy bounds the association poll: the first wait is Initial, growing up to
// Max, giving up after Timeout.
type Policy struct {
	Initial time.Duration
	Max     time.Duration
	Timeout time.Duration
}

var DefaultPolicy = Policy{
	Initial: 250 * time.Millisecond,
	Max:     5 * time.Second,
	Timeout: 60 * time.Second,
}

func PolicyFromConfig() Policy {
	return Policy{
		Initial: Config.GetDuration("join_poll"),
		Max:     Config.GetDuration("join_max_poll"),
		Timeout: Config.GetDuration("join_timeout"),
	}.bounded()
}

// bounded replaces non-positive durations with the defaults. A zero timeout
// would make the backoff retry forever.
func (p Policy) bounded() Policy {
	if p.Initial <= 0 {
		Logger.Warn().Dur("join_poll", p.Initial).Msg("non-positive join poll, using default")
		p.Initial = DefaultPolicy.Initial
	}
	if p.Max < p.Initial {
		p.Max = max(p.Initial, DefaultPolicy.Max)
	}
	if p.Timeout <= 0 {
		Logger.Warn().Dur("join_timeout", p.Timeout).Msg("non-positive join timeout, using default")
		p.Timeout = DefaultPolicy.Timeout
	}
	return p
}

// Associate starts the radio once and polls its status until connected.
func Associate(ctx context.Context, radio state.Radio, p Policy) error {
	Logger.Info().Msg("connecting")
	if err := radio.Begin(ctx); err != nil {
		return fmt.Errorf("begin association: %w", err)
	}

	p = p.bounded()
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.MaxElapsedTime = p.Timeout
	b.Reset()

	poll := func() error {
		if radio.Status() != state.Connected {
			return errNotAssociated
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		Logger.Debug().Dur("next", next).Msg("waiting for association")
	}

	if err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), notify); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %v", ErrJoinTimeout, p.Timeout)
	}

	Logger.Info().Str("address", radio.Address()).Msg("connected")
	return nil
}
