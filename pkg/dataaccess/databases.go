package dataaccess

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

// Redis is the Redis client. Used for expiring counters (spam windows, cooldowns).
var Redis *redis.Client

const mongoDatabase = "k1ll"

const (
	collectionGuilds  = "guilds"
	collectionTickets = "tickets"
	collectionWarns   = "warns"
	collectionXP      = "xp"
	collectionWallets = "wallets"
)
