package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/room_node/hardware"
	"github.com/elijahnyp/room_node/link"
	"github.com/elijahnyp/room_node/state"
	. "github.com/elijahnyp/room_node/util"
)

func openBoard(m Model) (*hardware.Board, error) {
	if m.Simulated {
		Logger.Info().Msg("using simulated board")
		return hardware.NewSimBoard(m.Sim), nil
	}
	return hardware.Open(m.Pins)
}

func openRadio(w Wifi) state.Radio {
	if w.Simulated {
		Logger.Info().Str("ssid", w.SSID).Msg("using simulated radio")
		return link.NewSimRadio(w)
	}
	return link.NewNMRadio(w)
}

func startMQTT(m Model) {
	if Config.GetString("broker_uri") == "" {
		MqttClose()
		return
	}
	if err := MqttInit(m.AvailabilityTopic(Config.GetString("topic_prefix"))); err != nil {
		Logger.Error().Err(err).Msg("mqtt unavailable, state mirror disabled")
	}
}

func main() {
	LogInit("info")
	if err := ParseFlags("room_node", os.Args[1:]); err != nil {
		Logger.Fatal().Err(err).Msg("bad command line")
	}
	SetupConfig("room_node", NodeDefaults)
	LogInit(Config.GetString("log_level"))
	RegisterNewConfigListener(func() { LogInit(Config.GetString("log_level")) })

	var model Model
	if err := model.BuildModel(); err != nil {
		Logger.Fatal().Err(err).Msg("invalid model")
	}

	board, err := openBoard(model)
	if err != nil {
		Logger.Fatal().Err(err).Msg("hardware setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, model, board)
	stop()
	if err != nil {
		Logger.Fatal().Err(err).Msg("wifi association failed")
	}
	Logger.Info().Msg("stopped")
}

// run owns the board and releases it on return. Only a join timeout is
// reported as an error; cancellation is a clean stop.
func run(ctx context.Context, model Model, board *hardware.Board) error {
	defer func() {
		if err := board.Close(); err != nil {
			Logger.Warn().Err(err).Msg("closing board")
		}
	}()

	client := &http.Client{Timeout: Config.GetDuration("http_timeout")}
	node := NewNode(
		openRadio(model.Wifi),
		board.Thermometer,
		board.Presence,
		&Reporter{Client: client, Endpoint: model.ReportURL()},
		&ControlFetcher{Client: client, Fan: board.Fan, Light: board.Light, URL: model.ControlURL()},
		newNodeMetrics(Registry),
	)
	node.SetTiming(TimingFromConfig())
	RegisterNewConfigListener(func() { node.SetTiming(TimingFromConfig()) })
	RegisterNewConfigListener(func() {
		var m Model
		if err := m.BuildModel(); err != nil {
			Logger.Error().Msgf("Error building model: %v", err)
			return
		}
		node.SetEndpoint(m)
	})

	prefix := Config.GetString("topic_prefix")
	mirror := NewMirror(model, prefix)
	node.OnCycle = mirror.Publish
	RegisterMQTTConnectHook("haadvertise", func(c MQTT.Client) {
		if err := AdvertiseHA(model, prefix, c); err != nil {
			Logger.Warn().Err(err).Msg("Home Assistant discovery")
		}
	})
	startMQTT(model)
	RegisterNewConfigListener(func() { startMQTT(model) })
	defer MqttClose()

	monitor := NewMonitorServer()
	monitor.AddHandler("/status", StatusHandler(node, model.Name))
	monitor.AddRawHandler("/metrics", MetricsHandler(Registry))
	if err := monitor.Start(); err != nil {
		Logger.Error().Msgf("Error starting monitor server: %v", err)
	}
	RegisterNewConfigListener(func() { monitor.Restart() })
	defer func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		monitor.Stop(shutdown)
	}()

	if err := node.Setup(ctx); err != nil {
		if errors.Is(err, link.ErrJoinTimeout) {
			return err
		}
		Logger.Error().Err(err).Msg("setup interrupted")
		return nil
	}

	done := make(chan struct{})
	defer close(done)
	go HAAdvertiser(model, prefix, 5*time.Minute, done)

	Logger.Info().Msg("ready")
	if err := node.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		Logger.Error().Err(err).Msg("loop stopped")
	}
	return nil
}
