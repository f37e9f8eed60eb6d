package config

import (
	"os"
	"strconv"
	"time"
)

type HTTP struct {
	Port         string        // service listen address, e.g. :8080
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
	IdleTimeout  time.Duration // HTTP idle timeout
}

type Dispatcher struct {
	TickInterval   time.Duration // backlog admission interval
	MaxConcurrency int           // ceiling on simultaneous deliveries
	AttemptTimeout time.Duration // per-attempt HTTP timeout
}

type Retention struct {
	Window        time.Duration // maximum delivery log age
	SweepInterval time.Duration // how often the sweeper runs
}

type Auth struct {
	Enabled      bool   // require JWT on the operator API
	PublicKeyPEM string // RSA public key used to verify tokens
	Issuer       string
	Audience     string
}

type FakeReceiver struct {
	FailFirstN      int    // number of requests to fail initially
	SigningSecret   string // secret for signature verification
	DestinationID   string // destination id the signature is bound to
	ResponseDelayMS int    // simulated response delay in milliseconds
	Port            string // server listen port
}

type Config struct {
	AppName      string
	HTTP         HTTP
	Dispatcher   Dispatcher
	Retention    Retention
	Auth         Auth
	FakeReceiver FakeReceiver
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName: getenv("APP_NAME", "bugsignal"),
		HTTP: HTTP{
			Port:         getenv("HTTP_PORT", ":8080"),
			ReadTimeout:  getenvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getenvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getenvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Dispatcher: Dispatcher{
			TickInterval:   getenvDuration("DISPATCH_TICK_INTERVAL", 2*time.Second),
			MaxConcurrency: getenvInt("MAX_CONCURRENCY", 20),
			AttemptTimeout: getenvDuration("ATTEMPT_TIMEOUT", 30*time.Second),
		},
		Retention: Retention{
			Window:        getenvDuration("RETENTION_WINDOW", 7*24*time.Hour),
			SweepInterval: getenvDuration("SWEEP_INTERVAL", time.Hour),
		},
		Auth: Auth{
			Enabled:      getenvBool("AUTH_ENABLED", false),
			PublicKeyPEM: getenv("JWT_PUBLIC_KEY", ""),
			Issuer:       getenv("JWT_ISSUER", "bugsignal"),
			Audience:     getenv("JWT_AUDIENCE", "bugsignal-api"),
		},
		FakeReceiver: FakeReceiver{
			FailFirstN:      getenvInt("FAIL_FIRST_N", 0),
			SigningSecret:   getenv("SIGNING_SECRET", ""),
			DestinationID:   getenv("DESTINATION_ID", ""),
			ResponseDelayMS: getenvInt("RESPONSE_DELAY_MS", 0),
			Port:            getenv("FAKE_RECEIVER_PORT", ":8081"),
		},
	}
}
