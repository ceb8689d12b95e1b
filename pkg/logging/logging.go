package logging

import (
	"log/slog"
	"os"
)

const (
	// KeyError is the structured logging key used for errors.
	KeyError = "err"

	// KeyDal is the structured logging key used for data access layers.
	KeyDal = "dal"

	// KeyAppName is the structured logging key used for the application name.
	KeyAppName = "app"

	// KeyGuildID is the structured logging key used for guild IDs.
	KeyGuildID = "guild_id"

	// KeyChannelID is the structured logging key used for channel IDs.
	KeyChannelID = "channel_id"

	// KeyUserID is the structured logging key used for user IDs.
	KeyUserID = "user_id"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// appName is the name of the application.
	appName Name
}

// NewConfig creates a new logger configuration.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: appName,
	}
}

// CommonLogger creates the common logger for the application. All logs are JSON to stdout with
// the application name attached.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	l := slog.New(h).With(slog.String(KeyAppName, string(c.appName)))

	// Set the default logger so that packages without an injected logger still log consistently.
	slog.SetDefault(l)

	return l, nil
}
