package hub

import (
	"strconv"

	. "github.com/elijahnyp/room_node/util"
	"github.com/prometheus/client_golang/prometheus"
)

type hubMetrics struct {
	readings    prometheus.Counter
	controls    *prometheus.CounterVec
	temperature prometheus.Gauge
}

func newHubMetrics(reg prometheus.Registerer, ws *WSHub) *hubMetrics {
	MustRegister(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "room_hub_websocket_clients",
		Help: "Connected websocket clients.",
	}, func() float64 { return float64(ws.Clients()) }))

	return &hubMetrics{
		readings: MustRegister(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "room_hub_readings_total",
			Help: "Readings accepted from nodes.",
		})),
		controls: MustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_hub_control_decisions_total",
			Help: "Control documents served, by fan and light command.",
		}, []string{"fan", "light"})),
		temperature: MustRegister(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "room_hub_temperature_celsius",
			Help: "Temperature of the latest reading.",
		})),
	}
}

func (m *hubMetrics) decided(c Control) {
	m.controls.WithLabelValues(strconv.FormatBool(c.Fan), strconv.FormatBool(c.Light)).Inc()
}
