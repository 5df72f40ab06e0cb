package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	APIBaseURL string
	APITimeout time.Duration
	SQLitePath string
	LogLevel   string

	// Account the bot signs in with when no stored session restores.
	BotEmail    string
	BotPassword string

	GroupID           string
	BotPhone          string
	ReplyDelayMinMs   int  // Minimum delay before reply (milliseconds)
	ReplyDelayMaxMs   int  // Maximum delay before reply (milliseconds), 0 = use min as fixed
	ShowTyping        bool // Show typing indicator during delay
	CommandsPerMinute int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using defaults/environment variables")
	}

	return Config{
		APIBaseURL:        getenv("API_BASE_URL", "https://crime-rate-prediction-backend1.onrender.com/api"),
		APITimeout:        getenvDuration("API_TIMEOUT", 15*time.Second),
		SQLitePath:        getenv("SQLITE_PATH", "./data/crimewatch.db"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		BotEmail:          getenv("BOT_EMAIL", ""),
		BotPassword:       getenv("BOT_PASSWORD", ""),
		GroupID:           getenv("GROUP_ID", ""),
		BotPhone:          getenv("BOT_PHONE", ""),
		ReplyDelayMinMs:   getenvInt("REPLY_DELAY_MIN_MS", 0),
		ReplyDelayMaxMs:   getenvInt("REPLY_DELAY_MAX_MS", 0),
		ShowTyping:        getenvBool("SHOW_TYPING", false),
		CommandsPerMinute: getenvInt("COMMANDS_PER_MINUTE", 6),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getenvDuration accepts Go durations ("20s") or a bare number of seconds.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
