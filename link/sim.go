package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

const simAddress = "10.13.37.2"

// SimRadio behaves like a simulator's guest access point: open network, fixed
// channel, associated a short while after Begin.
type SimRadio struct {
	started time.Time
	now     func() time.Time
	ssid    string
	mu      sync.Mutex
	delay   time.Duration
	channel int
	begun   bool
	dropped bool
}

func NewSimRadio(w Wifi) *SimRadio {
	return &SimRadio{
		now:     time.Now,
		ssid:    w.SSID,
		delay:   w.JoinDelay,
		channel: w.Channel,
	}
}

func (r *SimRadio) Begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.channel < 1 || r.channel > 14 {
		return fmt.Errorf("invalid channel %d", r.channel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = r.now()
	r.begun = true
	r.dropped = false
	Logger.Debug().Str("ssid", r.ssid).Int("channel", r.channel).Msg("simulated join started")
	return nil
}

func (r *SimRadio) Status() state.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.begun || r.dropped || r.now().Sub(r.started) < r.delay {
		return state.Disconnected
	}
	return state.Connected
}

func (r *SimRadio) Address() string {
	if r.Status() != state.Connected {
		return ""
	}
	return simAddress
}

// Drop emulates losing the access point until Restore or the next Begin.
func (r *SimRadio) Drop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = true
}

func (r *SimRadio) Restore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = false
}
