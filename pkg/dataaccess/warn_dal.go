package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/k1llbot/k1ll/pkg/dataaccess/monitoring"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const warnDalName = "warn_dal"

type WarnDal interface {
	// InsertWarn records a warning against a member.
	InsertWarn(ctx context.Context, warn *entities.Warn) error

	// GetWarnsByUser gets all warnings for a member, newest first.
	GetWarnsByUser(ctx context.Context, guildID, userID string) ([]*entities.Warn, error)

	// ClearWarns removes all warnings for a member and returns how many were removed.
	ClearWarns(ctx context.Context, guildID, userID string) (int64, error)
}

type warnDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewWarnDal creates a new warn data access layer.
func NewWarnDal() WarnDal {
	l := slog.Default().With(slog.String(logging.KeyDal, warnDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &warnDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *warnDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionWarns)
}

func (d *warnDalImpl) InsertWarn(ctx context.Context, warn *entities.Warn) error {
	monitoring.MongoTotalRequests.WithLabelValues(warnDalName, "insert_warn", mongoDatabase, collectionWarns).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(warnDalName, "insert_warn", mongoDatabase, collectionWarns))
	defer t.ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, warn); err != nil {
		return fmt.Errorf("error inserting warn: %w", err)
	}
	return nil
}

func (d *warnDalImpl) GetWarnsByUser(ctx context.Context, guildID, userID string) ([]*entities.Warn, error) {
	monitoring.MongoTotalRequests.WithLabelValues(warnDalName, "get_warns_by_user", mongoDatabase, collectionWarns).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(warnDalName, "get_warns_by_user", mongoDatabase, collectionWarns))
	defer t.ObserveDuration()

	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	cur, err := d.collection().Find(ctx, bson.M{"guild_id": guildID, "user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error getting warns: %w", err)
	}

	var warns []*entities.Warn
	if err := cur.All(ctx, &warns); err != nil {
		return nil, fmt.Errorf("error decoding warns: %w", err)
	}
	return warns, nil
}

func (d *warnDalImpl) ClearWarns(ctx context.Context, guildID, userID string) (int64, error) {
	monitoring.MongoTotalRequests.WithLabelValues(warnDalName, "clear_warns", mongoDatabase, collectionWarns).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(warnDalName, "clear_warns", mongoDatabase, collectionWarns))
	defer t.ObserveDuration()

	res, err := d.collection().DeleteMany(ctx, bson.M{"guild_id": guildID, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("error clearing warns: %w", err)
	}
	return res.DeletedCount, nil
}
