package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/dataaccess/connection"
	"github.com/k1llbot/k1ll/pkg/logging"
)

func Parse(l *slog.Logger) {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envRedisAddr := os.Getenv(EnvRedisAddr); envRedisAddr != "" {
		l.Debug("Found Redis address in environment", slog.String("key", EnvRedisAddr))
		RedisAddr = envRedisAddr
	} else {
		RedisAddr = "localhost:6379"

		l.Info("No Redis address provided in environment, defaulting to localhost:6379", slog.String("key", EnvRedisAddr))
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"

		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if BotToken == "" ||
		ApplicationId == "" ||
		MongoUri == "" {

		l.Error("Not all required environment variables have been provided", slog.String(logging.KeyError, "Incomplete configuration"))
		os.Exit(1)
	}

	l.Debug("All required environment variables have been provided")
	connectMongo(l)
	connectRedis(l)
}

func connectMongo(l *slog.Logger) {
	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect()
	if err != nil {
		l.Error("Error connecting to mongo", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	} else if db == nil {
		l.Error("MongoDB came back nil", slog.String(logging.KeyError, "MongoDB came back nil"))
		os.Exit(1)
	}

	dataaccess.MongoDB = db

	// The one-open-ticket-per-user invariant lives in the store; make sure the index backing
	// it exists before any interaction is handled.
	if err := dataaccess.NewTicketDal().EnsureIndexes(context.Background()); err != nil {
		l.Error("Error ensuring ticket indexes", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
}

func connectRedis(l *slog.Logger) {
	redisConn := new(connection.Redis)
	redisConn.Addr = RedisAddr

	rdb, err := redisConn.Connect()
	if err != nil {
		l.Error("Error connecting to redis", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	dataaccess.Redis = rdb

	l.Debug("Connected to Redis", slog.String("key", EnvRedisAddr))
}
