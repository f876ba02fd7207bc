package util

import (
	"crypto/rand"
	"fmt"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ENV_PREFIX = ""

var Config = viper.New()

var config_listeners []func()

func RegisterNewConfigListener(new_listener func()) {
	for _, listener := range config_listeners {
		if reflect.ValueOf(new_listener).Pointer() == reflect.ValueOf(listener).Pointer() {
			Logger.Warn().Msg("config listener already registered")
			return
		}
	}
	config_listeners = append(config_listeners, new_listener)
}

func OnNewConfig() {
	for _, listener := range config_listeners {
		listener()
	}
}

func GetRandString(n int) string {
	// using crypto/rand for better security
	const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		randBytes := make([]byte, 1)
		if _, err := rand.Read(randBytes); err != nil {
			// fallback to a simple approach if crypto/rand fails
			b[i] = letterBytes[i%len(letterBytes)]
		} else {
			b[i] = letterBytes[int(randBytes[0])%len(letterBytes)]
		}
	}
	return string(b)
}

// NodeDefaults are the settings of the room node binary.
var NodeDefaults = map[string]any{
	"log_format":         "console",
	"log_level":          "info",
	"interval":           5 * time.Second,
	"idle_interval":      time.Second,
	"http_timeout":       10 * time.Second,
	"reconnect":          false,
	"reconnect_interval": 30 * time.Second,
	"join_timeout":       60 * time.Second,
	"join_poll":          250 * time.Millisecond,
	"join_max_poll":      5 * time.Second,
	"monitor_port":       8081,
	"broker_uri":         "",
	"cleansess":          false,
	"id_base":            "room_node",
	"username":           "",
	"password":           "",
	"topic_prefix":       "room_node",
}

// HubDefaults are the settings of the hub binary.
var HubDefaults = map[string]any{
	"log_format":      "console",
	"log_level":       "info",
	"listen":          ":8000",
	"database":        "room_hub.db",
	"timezone":        "America/Jamaica",
	"latitude":        17.97787,
	"longitude":       -76.77339,
	"sun_url":         "https://api.sunrise-sunset.org/json",
	"sun_timeout":     10 * time.Second,
	"allowed_origins": []string{"*"},
}

// ParseFlags binds the command line into Config. Must run before SetupConfig.
func ParseFlags(name string, args []string) error {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "path to the config file")
	flags.String("log_level", "", "trace, debug, info or warn")
	if err := flags.Parse(args); err != nil {
		return err
	}
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			Config.Set(f.Name, f.Value.String())
		}
	})
	return nil
}

func SetupConfig(name string, defaults map[string]any) {
	Config.SetEnvPrefix(ENV_PREFIX)
	// set defaults
	for key, value := range defaults {
		Config.SetDefault(key, value)
	}

	// config file
	if file := Config.GetString("config"); file != "" {
		Config.SetConfigFile(file)
	} else {
		Config.SetConfigName(name)
		Config.AddConfigPath("/")
		Config.AddConfigPath("./")
		Config.AddConfigPath("./config")
		Config.AddConfigPath("/etc")
		Config.AddConfigPath("/" + name)
		Config.AddConfigPath("/" + name + "/config")
	}

	err := Config.ReadInConfig()
	if err != nil {
		Logger.Error().Msgf("unable to read config file: %v", fmt.Errorf("%v", err))
	}

	// environment variables
	Config.AutomaticEnv()

	// watch for changes
	Config.WatchConfig()
	Config.OnConfigChange(func(e fsnotify.Event) {
		Logger.Info().Msgf("Config file changed: %v", e.Name)
		Logger.Debug().Msgf("Config Additional Info: %v", e.String())
		OnNewConfig()
	})
}
