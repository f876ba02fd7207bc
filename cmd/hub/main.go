package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elijahnyp/room_node/hub"
	. "github.com/elijahnyp/room_node/util"
)

func main() {
	LogInit("info")
	if err := ParseFlags("room_hub", os.Args[1:]); err != nil {
		Logger.Fatal().Err(err).Msg("bad command line")
	}
	SetupConfig("room_hub", HubDefaults)
	LogInit(Config.GetString("log_level"))
	RegisterNewConfigListener(func() { LogInit(Config.GetString("log_level")) })

	loc, err := time.LoadLocation(Config.GetString("timezone"))
	if err != nil {
		Logger.Fatal().Err(err).Str("timezone", Config.GetString("timezone")).Msg("unknown timezone")
	}

	store, err := hub.OpenStore(Config.GetString("database"))
	if err != nil {
		Logger.Fatal().Err(err).Msg("opening database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			Logger.Warn().Err(err).Msg("closing database")
		}
	}()

	sun := &hub.SunClient{
		Client:    &http.Client{Timeout: Config.GetDuration("sun_timeout")},
		URL:       Config.GetString("sun_url"),
		Latitude:  Config.GetFloat64("latitude"),
		Longitude: Config.GetFloat64("longitude"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws := hub.NewWSHub()
	go ws.Run(ctx)

	api := hub.NewServer(store, sun, loc, ws, Registry, Config.GetStringSlice("allowed_origins"))
	srv := &http.Server{
		Addr:              Config.GetString("listen"),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			Logger.Error().Err(err).Msg("hub shutdown")
		}
	}()

	Logger.Info().Str("listen", srv.Addr).Str("timezone", loc.String()).Msg("hub ready")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Logger.Error().Err(err).Msg("hub server")
	}
	Logger.Info().Msg("hub stopped")
}
