package main

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	storeBadger    = "badger"
	storeSQLite    = "sqlite"
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	StoreDriver          string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteFilepath       string        `env:"SQLITE_FILEPATH,default=./data/chat-relay.db"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=5h"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	ReactorBufferSize    int           `env:"REACTOR_BUFFER_SIZE,default=1024"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	BotProvider          string        `env:"BOT_PROVIDER,default=openai"`
	BotEndpoint          string        `env:"BOT_ENDPOINT,default=https://text.pollinations.ai/openai"`
	BotModel             string        `env:"BOT_MODEL"`
	GeminiAPIKey         string        `env:"GEMINI_API_KEY"`
	BotTimeout           time.Duration `env:"BOT_TIMEOUT,default=15s"`
	BotName              string        `env:"BOT_NAME,default=ChirpBot"`
	ModerationEnabled    bool          `env:"MODERATION_ENABLED,default=false"`
	CharacterReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	AllowedOrigin        string        `env:"ALLOWED_ORIGIN,default=*"`
}

// validate catches what the env tags cannot express.
func (c Config) validate() error {
	switch c.StoreDriver {
	case storeBadger, storeSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.BotProvider {
	case providerOpenAI:
	case providerGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required with BOT_PROVIDER=%s", providerGemini)
		}
	default:
		return fmt.Errorf("unknown BOT_PROVIDER %q", c.BotProvider)
	}
	if c.ConnectionBufferSize <= 0 || c.ReactorBufferSize <= 0 {
		return fmt.Errorf("buffer sizes must be positive")
	}
	if c.LimitMessages != nil && *c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be positive when set")
	}
	if c.ModerationEnabled && utf8.RuneCountInString(c.CharacterReplacement) != 1 {
		return fmt.Errorf("CHARACTER_REPLACEMENT must be a single character")
	}
	return nil
}

func (c Config) replacementRune() rune {
	r, _ := utf8.DecodeRuneInString(c.CharacterReplacement)
	return r
}
