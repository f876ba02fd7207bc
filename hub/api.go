package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	. "github.com/elijahnyp/room_node/util"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

const graphLimit = 1000

// Server is the hub's HTTP API.
type Server struct {
	now     func() time.Time
	sun     SunsetSource
	store   *Store
	loc     *time.Location
	ws      *WSHub
	metrics *hubMetrics
	reg     *prometheus.Registry
	origins []string
}

func NewServer(store *Store, sun SunsetSource, loc *time.Location, ws *WSHub, reg *prometheus.Registry, origins []string) *Server {
	return &Server{
		now:     time.Now,
		sun:     sun,
		store:   store,
		loc:     loc,
		ws:      ws,
		metrics: newHubMetrics(reg, ws),
		reg:     reg,
		origins: origins,
	}
}

// logWriter sends access logs through whatever Logger is current.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) { return Logger.Write(p) }

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/settings", s.putSettings).Methods(http.MethodPut)
	r.HandleFunc("/settings", s.listSettings).Methods(http.MethodGet)
	r.HandleFunc("/reading", s.createReading).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/graph", s.graph).Methods(http.MethodGet)
	r.HandleFunc("/control", s.control).Methods(http.MethodGet)
	r.HandleFunc("/reading/control", s.control).Methods(http.MethodGet)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", MetricsHandler(s.reg)).Methods(http.MethodGet)
	r.Handle("/ws", s.ws)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(logWriter{}, cors(r))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type settingsInput struct {
	UserTemp      *float64 `json:"user_temp"`
	UserLight     *string  `json:"user_light"`
	LightDuration *string  `json:"light_duration"`
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var in settingsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if in.UserTemp == nil || in.UserLight == nil || in.LightDuration == nil {
		writeError(w, http.StatusUnprocessableEntity, "user_temp, user_light and light_duration are required")
		return
	}

	settings, err := Resolve(r.Context(), Settings{
		UserTemp:      *in.UserTemp,
		UserLight:     *in.UserLight,
		LightDuration: *in.LightDuration,
	}, s.sun, s.loc)
	switch {
	case errors.Is(err, ErrInvalidClock), errors.Is(err, ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		Logger.Warn().Err(err).Msg("resolving settings")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	stored, err := s.store.PutSettings(r.Context(), settings)
	if err != nil {
		Logger.Error().Err(err).Msg("storing settings")
		writeError(w, http.StatusInternalServerError, "could not store settings")
		return
	}
	Logger.Info().Str("on", stored.UserLight).Str("off", stored.LightTimeOff).Float64("user_temp", stored.UserTemp).Msg("settings updated")
	s.ws.Broadcast("settings", stored)
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSettings(r.Context())
	if err != nil {
		Logger.Error().Err(err).Msg("listing settings")
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type readingInput struct {
	Temperature *float64 `json:"temperature"`
	Presence    *bool    `json:"presence"`
}

func (s *Server) createReading(w http.ResponseWriter, r *http.Request) {
	var in readingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if in.Temperature == nil || in.Presence == nil {
		writeError(w, http.StatusUnprocessableEntity, "temperature and presence are required")
		return
	}

	reading, err := s.store.AddReading(r.Context(), Reading{
		Temperature: *in.Temperature,
		Presence:    *in.Presence,
		Datetime:    s.now().In(s.loc),
	})
	if err != nil {
		Logger.Error().Err(err).Msg("storing reading")
		writeError(w, http.StatusInternalServerError, "could not store reading")
		return
	}

	s.metrics.readings.Inc()
	s.metrics.temperature.Set(reading.Temperature)
	s.ws.Broadcast("reading", reading)
	if c, err := s.decide(r.Context()); err == nil {
		s.ws.Broadcast("control", c)
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	readings, err := s.store.Readings(r.Context(), graphLimit, s.loc)
	if err != nil {
		Logger.Error().Err(err).Msg("listing readings")
		writeError(w, http.StatusInternalServerError, "could not load readings")
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// decide builds the control document; both outputs are off until settings
// and at least one reading exist.
func (s *Server) decide(ctx context.Context) (Control, error) {
	settings, err := s.store.GetSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		return Control{}, nil
	}
	if err != nil {
		return Control{}, err
	}
	reading, err := s.store.LatestReading(ctx, s.loc)
	if errors.Is(err, ErrNotFound) {
		return Control{}, nil
	}
	if err != nil {
		return Control{}, err
	}
	return Decide(settings, reading, s.now().In(s.loc))
}

func (s *Server) control(w http.ResponseWriter, r *http.Request) {
	c, err := s.decide(r.Context())
	if err != nil {
		Logger.Error().Err(err).Msg("deciding control")
		writeError(w, http.StatusInternalServerError, "could not compute control")
		return
	}
	s.metrics.decided(c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
