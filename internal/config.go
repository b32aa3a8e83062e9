package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=8000"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath   string        `env:"BLUGE_FILEPATH,required=true"`
	JWTSecret       string        `env:"JWT_SECRET,required=true"`
	JWTIssuer       string        `env:"JWT_ISSUER,default=chat-backend"`
	JWTAudience     string        `env:"JWT_AUDIENCE,default=chat-backend"`
	TokenValidity   time.Duration `env:"JWT_VALIDITY,default=1h"`
	SendBuffer      int           `env:"SEND_BUFFER,default=256"`
	PingInterval    time.Duration `env:"PING_INTERVAL,default=15s"`
	PongWait        time.Duration `env:"PONG_WAIT,default=30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
	SearchLimit     int           `env:"SEARCH_LIMIT,default=50"`
}

// CharacterRune enforces that the censoring replacement is one rune.
func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", c.CharReplacement)
	}
	return r[0], nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Origins splits the comma-separated allow list; empty means every
// origin is accepted.
func (c Config) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
