package main

import (
	"context"
	"sync"
	"time"

	"github.com/elijahnyp/room_node/link"
	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

// Node runs the sense, report, control loop. Hardware and radio are created by
// the caller and shared by reference.
type Node struct {
	lastJoin    time.Time
	Radio       state.Radio
	Thermometer state.Thermometer
	Presence    state.PresenceSensor
	reporter    *Reporter
	control     *ControlFetcher
	metrics     *nodeMetrics
	OnCycle     func(state.NodeState)
	st          state.NodeState
	Join        link.Policy
	interval    time.Duration
	idle        time.Duration
	rejoinEvery time.Duration
	mu          sync.RWMutex
	reconnect   bool
}

type Timing struct {
	Interval    time.Duration
	Idle        time.Duration
	RejoinEvery time.Duration
	Reconnect   bool
}

func TimingFromConfig() Timing {
	return Timing{
		Interval:    Config.GetDuration("interval"),
		Idle:        Config.GetDuration("idle_interval"),
		RejoinEvery: Config.GetDuration("reconnect_interval"),
		Reconnect:   Config.GetBool("reconnect"),
	}
}

func NewNode(radio state.Radio, therm state.Thermometer, presence state.PresenceSensor,
	reporter *Reporter, control *ControlFetcher, metrics *nodeMetrics) *Node {
	return &Node{
		Radio:       radio,
		Thermometer: therm,
		Presence:    presence,
		reporter:    reporter,
		control:     control,
		metrics:     metrics,
		Join:        link.PolicyFromConfig(),
		interval:    5 * time.Second,
		idle:        time.Second,
		rejoinEvery: 30 * time.Second,
		reconnect:   false,
	}
}

func (n *Node) SetTiming(t Timing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t.Interval > 0 {
		n.interval = t.Interval
	}
	if t.Idle > 0 {
		n.idle = t.Idle
	}
	if t.RejoinEvery > 0 {
		n.rejoinEvery = t.RejoinEvery
	}
	n.reconnect = t.Reconnect
}

// SetEndpoint points reports and control fetches at a new hub.
func (n *Node) SetEndpoint(m Model) {
	n.mu.Lock()
	defer n.mu.Unlock()
	reporter := *n.reporter
	reporter.Endpoint = m.ReportURL()
	control := *n.control
	control.URL = m.ControlURL()
	n.reporter, n.control = &reporter, &control
}

func (n *Node) State() state.NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.st
}

// Setup blocks until the radio is associated or the join policy gives up.
func (n *Node) Setup(ctx context.Context) error {
	if err := link.Associate(ctx, n.Radio, n.Join); err != nil {
		return err
	}
	n.mu.Lock()
	n.st.Connection = state.Connected
	n.lastJoin = time.Now()
	n.mu.Unlock()
	return nil
}

func (n *Node) read() state.SensorReading {
	celsius, err := n.Thermometer.Celsius()
	if err != nil {
		Logger.Warn().Err(err).Msg("temperature read failed")
		celsius = state.DisconnectedCelsius
	}
	present, err := n.Presence.Present()
	if err != nil {
		Logger.Warn().Err(err).Msg("presence read failed")
		present = false
	}
	return state.SensorReading{Temperature: celsius, Presence: present}
}

// Cycle runs one loop body. Disconnected cycles do no network or output I/O.
func (n *Node) Cycle(ctx context.Context) state.NodeState {
	n.mu.RLock()
	st := n.st
	reporter, control := n.reporter, n.control
	reconnect, rejoinEvery, lastJoin := n.reconnect, n.rejoinEvery, n.lastJoin
	n.mu.RUnlock()

	st.LastCycle = time.Now()
	st.Cycles++
	st.Reported, st.Applied = false, false
	st.Connection = n.Radio.Status()

	if st.Connection == state.Connected {
		st.Reading = n.read()
		err := reporter.Report(ctx, st.Reading)
		st.Reported = err == nil
		n.metrics.reports.WithLabelValues(reportResult(err)).Inc()

		cmd, err := control.Update(ctx)
		if err == nil {
			st.Command = cmd
			st.Applied = true
		}
		n.metrics.controls.WithLabelValues(controlResult(err)).Inc()
	} else {
		Logger.Warn().Msg("wifi disconnected")
		if reconnect && st.LastCycle.Sub(lastJoin) >= rejoinEvery {
			Logger.Info().Msg("attempting to rejoin")
			if err := n.Radio.Begin(ctx); err != nil {
				Logger.Warn().Err(err).Msg("rejoin failed")
			}
			lastJoin = st.LastCycle
		}
	}

	n.metrics.observe(st, control.Fan, control.Light)

	n.mu.Lock()
	n.st = st
	n.lastJoin = lastJoin
	onCycle := n.OnCycle
	n.mu.Unlock()

	if onCycle != nil {
		onCycle(st)
	}
	return st
}

// Run repeats Cycle until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := n.Cycle(ctx)

		n.mu.RLock()
		wait := n.idle
		if st.Connection == state.Connected {
			wait = n.interval
		}
		n.mu.RUnlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
