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

const walletDalName = "wallet_dal"

type WalletDal interface {
	// GetWallet gets the wallet for a member. A member with no economy history gets an empty
	// wallet, not an error.
	GetWallet(ctx context.Context, guildID, userID string) (*entities.Wallet, error)

	// SaveWallet upserts a wallet.
	SaveWallet(ctx context.Context, wallet *entities.Wallet) error
}

type walletDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewWalletDal creates a new wallet data access layer.
func NewWalletDal() WalletDal {
	l := slog.Default().With(slog.String(logging.KeyDal, walletDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &walletDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *walletDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionWallets)
}

func (d *walletDalImpl) GetWallet(ctx context.Context, guildID, userID string) (*entities.Wallet, error) {
	monitoring.MongoTotalRequests.WithLabelValues(walletDalName, "get_wallet", mongoDatabase, collectionWallets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(walletDalName, "get_wallet", mongoDatabase, collectionWallets))
	defer t.ObserveDuration()

	wallet := new(entities.Wallet)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID, "user_id": userID}).Decode(wallet)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &entities.Wallet{GuildID: guildID, UserID: userID}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}
	return wallet, nil
}

func (d *walletDalImpl) SaveWallet(ctx context.Context, wallet *entities.Wallet) error {
	monitoring.MongoTotalRequests.WithLabelValues(walletDalName, "save_wallet", mongoDatabase, collectionWallets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(walletDalName, "save_wallet", mongoDatabase, collectionWallets))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx,
		bson.M{"guild_id": wallet.GuildID, "user_id": wallet.UserID},
		bson.M{"$set": wallet}, opts)
	if err != nil {
		return fmt.Errorf("error saving wallet: %w", err)
	}
	return nil
}
