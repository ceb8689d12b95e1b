package dataaccess

import (
	"context"
	"errors"
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

const xpDalName = "xp_dal"

type XPDal interface {
	// GetProfile gets the experience profile for a member. A member that has never earned
	// experience gets a zeroed profile, not an error.
	GetProfile(ctx context.Context, guildID, userID string) (*entities.XPProfile, error)

	// SaveProfile upserts an experience profile.
	SaveProfile(ctx context.Context, profile *entities.XPProfile) error

	// TopProfiles gets the highest ranked profiles for a guild.
	TopProfiles(ctx context.Context, guildID string, limit int64) ([]*entities.XPProfile, error)
}

type xpDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewXPDal creates a new experience data access layer.
func NewXPDal() XPDal {
	l := slog.Default().With(slog.String(logging.KeyDal, xpDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &xpDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *xpDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionXP)
}

func (d *xpDalImpl) GetProfile(ctx context.Context, guildID, userID string) (*entities.XPProfile, error) {
	monitoring.MongoTotalRequests.WithLabelValues(xpDalName, "get_profile", mongoDatabase, collectionXP).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(xpDalName, "get_profile", mongoDatabase, collectionXP))
	defer t.ObserveDuration()

	profile := new(entities.XPProfile)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID, "user_id": userID}).Decode(profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &entities.XPProfile{GuildID: guildID, UserID: userID}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting xp profile: %w", err)
	}
	return profile, nil
}

func (d *xpDalImpl) SaveProfile(ctx context.Context, profile *entities.XPProfile) error {
	monitoring.MongoTotalRequests.WithLabelValues(xpDalName, "save_profile", mongoDatabase, collectionXP).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(xpDalName, "save_profile", mongoDatabase, collectionXP))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx,
		bson.M{"guild_id": profile.GuildID, "user_id": profile.UserID},
		bson.M{"$set": profile}, opts)
	if err != nil {
		return fmt.Errorf("error saving xp profile: %w", err)
	}
	return nil
}

func (d *xpDalImpl) TopProfiles(ctx context.Context, guildID string, limit int64) ([]*entities.XPProfile, error) {
	monitoring.MongoTotalRequests.WithLabelValues(xpDalName, "top_profiles", mongoDatabase, collectionXP).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(xpDalName, "top_profiles", mongoDatabase, collectionXP))
	defer t.ObserveDuration()

	opts := options.Find().
		SetSort(bson.D{{Key: "level", Value: -1}, {Key: "xp", Value: -1}}).
		SetLimit(limit)
	cur, err := d.collection().Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error getting leaderboard: %w", err)
	}

	var profiles []*entities.XPProfile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("error decoding leaderboard: %w", err)
	}
	return profiles, nil
}
