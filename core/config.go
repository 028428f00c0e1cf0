package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug   bool
		Env     string // DEV (local; default), TEST, QA, PROD
		Build   string
		AppName string

		RollbarToken string

		// StateDir holds client-local persisted state (auth token, marked events).
		StateDir string

		API        APIConfig
		Attendance AttendanceConfig
		Location   LocationConfig
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	AttendanceConfig struct {
		// CodeTTL is the server-declared validity window of an attendance code.
		// The client only communicates it; the server enforces expiry.
		CodeTTL      time.Duration
		PollInterval time.Duration
	}

	LocationConfig struct {
		HighAccuracy bool
		Timeout      time.Duration
		MaximumAge   time.Duration

		// fallback device position (kiosk installs)
		StaticLat float64
		StaticLng float64
	}
)

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Mahudhurio")
	conf.SetDefault("stateDir", defaultStateDir())
	conf.SetDefault("apiBaseUrl", "http://localhost:8080/api/v1")
	conf.SetDefault("apiTimeout", 10*time.Second)
	conf.SetDefault("attendanceCodeTTL", 90*time.Second)
	conf.SetDefault("attendancePollInterval", 5*time.Second)
	conf.SetDefault("locationHighAccuracy", true)
	conf.SetDefault("locationTimeout", 10*time.Second)
	conf.SetDefault("locationMaximumAge", 60*time.Second)
	conf.SetDefault("locationStaticLat", 0.0)
	conf.SetDefault("locationStaticLng", 0.0)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:        conf.GetBool("debug"),
		Env:          env,
		Build:        conf.GetString("build"),
		AppName:      conf.GetString("appName"),
		RollbarToken: conf.GetString("rollbarToken"),
		StateDir:     conf.GetString("stateDir"),
		API: APIConfig{
			BaseURL: strings.TrimRight(conf.GetString("apiBaseUrl"), "/"),
			Timeout: conf.GetDuration("apiTimeout"),
		},
		Attendance: AttendanceConfig{
			CodeTTL:      conf.GetDuration("attendanceCodeTTL"),
			PollInterval: conf.GetDuration("attendancePollInterval"),
		},
		Location: LocationConfig{
			HighAccuracy: conf.GetBool("locationHighAccuracy"),
			Timeout:      conf.GetDuration("locationTimeout"),
			MaximumAge:   conf.GetDuration("locationMaximumAge"),
			StaticLat:    conf.GetFloat64("locationStaticLat"),
			StaticLng:    conf.GetFloat64("locationStaticLng"),
		},
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mahudhurio"
	}
	return filepath.Join(home, ".mahudhurio")
}
