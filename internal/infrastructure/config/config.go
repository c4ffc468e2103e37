package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects everything the record command needs. Flags take precedence;
// FromEnv supplies the defaults so CI setups can configure without flags.
type Config struct {
	OutputDir string
	Name      string
	TargetURL string
	Browser   string
	Headless  bool
	TimeoutMs int
	LogLevel  string

	// Bridge is the local intake endpoint the in-page recorder connects to.
	BridgeAddr string
	// GraceMs bounds how long Stop waits for in-flight events to settle.
	GraceMs int
}

func FromEnv() Config {
	return Config{
		Browser:    getEnv("TCR_BROWSER", "chromium"),
		TimeoutMs:  getEnvInt("TCR_TIMEOUT_MS", 30000),
		LogLevel:   getEnv("TCR_LOG_LEVEL", "info"),
		BridgeAddr: getEnv("TCR_BRIDGE_ADDR", "127.0.0.1:9223"),
		GraceMs:    getEnvInt("TCR_GRACE_MS", 500),
	}
}

func (c Config) Grace() time.Duration {
	return time.Duration(c.GraceMs) * time.Millisecond
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
