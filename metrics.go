package main

import (
	"errors"

	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
	"github.com/prometheus/client_golang/prometheus"
)

type nodeMetrics struct {
	cycles      *prometheus.CounterVec
	reports     *prometheus.CounterVec
	controls    *prometheus.CounterVec
	outputs     *prometheus.GaugeVec
	temperature prometheus.Gauge
	presence    prometheus.Gauge
}

func newNodeMetrics(reg prometheus.Registerer) *nodeMetrics {
	return &nodeMetrics{
		cycles: MustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_node_cycles_total",
			Help: "Loop iterations by connection state.",
		}, []string{"connection"})),
		reports: MustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_node_reports_total",
			Help: "Reading reports by result.",
		}, []string{"result"})),
		controls: MustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_node_control_fetches_total",
			Help: "Control fetches by result.",
		}, []string{"result"})),
		outputs: MustRegister(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "room_node_output_on",
			Help: "Current level of each output, 1 for on.",
		}, []string{"output"})),
		temperature: MustRegister(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_node_temperature_celsius",
			Help: "Last temperature read.",
		})),
		presence: MustRegister(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_node_presence",
			Help: "Last presence read, 1 for present.",
		})),
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func reportResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func controlResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedControl):
		return "parse_error"
	default:
		return "error"
	}
}

func (m *nodeMetrics) observe(st state.NodeState, outputs ...state.Output) {
	m.cycles.WithLabelValues(st.Connection.String()).Inc()
	if st.Connection != state.Connected {
		return
	}
	m.temperature.Set(st.Reading.Temperature)
	m.presence.Set(boolGauge(st.Reading.Presence))
	for _, o := range outputs {
		m.outputs.WithLabelValues(o.Name()).Set(boolGauge(o.Get()))
	}
}
