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

const ticketDalName = "ticket_dal"

type TicketDal interface {
	// InsertTicket inserts a new open ticket. Returns ErrDuplicateOpenTicket if the owner
	// already has an open ticket in the guild; the rejection is atomic at the store so two
	// concurrent inserts for the same owner can never both succeed.
	InsertTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetOpenTicketByUser gets the open ticket owned by the given user, or ErrTicketNotFound.
	GetOpenTicketByUser(ctx context.Context, guildID, userID string) (*entities.Ticket, error)

	// GetOpenTicketByChannel gets the open ticket for the given channel, or ErrTicketNotFound.
	// A closed ticket and a channel that never was a ticket look the same here.
	GetOpenTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)

	// CloseTicket atomically flips the open ticket for the given channel to closed and returns
	// it. Returns ErrTicketNotFound when there is no open ticket for the channel, so a repeated
	// close is observed as a failure rather than silently succeeding.
	CloseTicket(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)

	// EnsureIndexes creates the unique partial index that enforces at most one open ticket per
	// (guild, owner). Safe to call on every startup.
	EnsureIndexes(ctx context.Context) error
}

type ticketDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal() TicketDal {
	l := slog.Default().With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionTickets)
}

func (d *ticketDalImpl) EnsureIndexes(ctx context.Context) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "ensure_indexes", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "ensure_indexes", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	_, err := d.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// One open ticket per owner per guild. Closed tickets are excluded so history does
			// not block reopening.
			Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("one_open_ticket_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"open": true}),
		},
		{
			Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "channel_id", Value: 1}},
			Options: options.Index().SetName("ticket_by_channel"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating ticket indexes: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) InsertTicket(ctx context.Context, ticket *entities.Ticket) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "insert_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "insert_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	_, err := d.collection().InsertOne(ctx, ticket)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateOpenTicket
	} else if err != nil {
		return fmt.Errorf("error inserting ticket: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) GetOpenTicketByUser(ctx context.Context, guildID, userID string) (*entities.Ticket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_open_ticket_by_user", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_open_ticket_by_user", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id": guildID,
		"user_id":  userID,
		"open":     true,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDalImpl) GetOpenTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_open_ticket_by_channel", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_open_ticket_by_channel", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":   guildID,
		"channel_id": channelID,
		"open":       true,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDalImpl) CloseTicket(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "close_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "close_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOneAndUpdate(ctx,
		bson.M{
			"guild_id":   guildID,
			"channel_id": channelID,
			"open":       true,
		},
		bson.M{"$set": bson.M{"open": false}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error closing ticket: %w", err)
	}
	return ticket, nil
}
