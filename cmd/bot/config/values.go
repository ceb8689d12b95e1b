package config

const (
	// AppName is the name of the application.
	AppName = "k1ll"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvRedisAddr is the environment variable for the Redis address.
	EnvRedisAddr = `REDIS_ADDR`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// RedisAddr is the address of the Redis instance.
	RedisAddr string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string
)
