// Package ticketing implements the ticket lifecycle: the registry that owns open/closed state,
// the channel provisioner that creates and tears down ticket channels, and the transcript
// builder that linearises a channel's history on close.
//
// All state lives in the store; the registry holds no in-process state, so concurrent
// interactions are serialised through the tickets collection's unique partial index rather
// than through memory.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
)

// Registry is the sole authority over ticket open/closed state. Every lifecycle transition
// passes through it.
type Registry interface {
	// TryOpen checks whether the user already has an open ticket in the guild. It returns the
	// existing channel ID if so, or an empty string when the caller should proceed with
	// provisioning. No slot is reserved here: the authoritative insert happens in RecordOpened
	// once the channel exists, and the store rejects a lost race there.
	TryOpen(ctx context.Context, guildID, userID string) (string, error)

	// RecordOpened inserts the open ticket row. Call only after the channel has been
	// provisioned. Returns ErrDuplicateTicket when a concurrent open won the race; the caller
	// must then tear down the channel it just created.
	RecordOpened(ctx context.Context, ticket *entities.Ticket) error

	// FindOpenByChannel resolves a channel back to its open ticket, or ErrNotATicket.
	FindOpenByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)

	// Close flips the open ticket for the channel to closed and returns it. A second close of
	// the same channel observes ErrNotATicket and mutates nothing.
	Close(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)
}

type registry struct {
	// l is the logger.
	l *slog.Logger

	// dal is the ticket data access layer.
	dal dataaccess.TicketDal
}

// NewRegistry creates a new ticket registry on top of the given data access layer.
func NewRegistry(dal dataaccess.TicketDal, l *slog.Logger) Registry {
	return &registry{
		l:   l,
		dal: dal,
	}
}

func (r *registry) TryOpen(ctx context.Context, guildID, userID string) (string, error) {
	existing, err := r.dal.GetOpenTicketByUser(ctx, guildID, userID)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("error checking for open ticket: %w", err)
	}
	return existing.ChannelID, nil
}

func (r *registry) RecordOpened(ctx context.Context, ticket *entities.Ticket) error {
	if !ticket.Open {
		return fmt.Errorf("ticket for channel %s is not marked open", ticket.ChannelID)
	}

	err := r.dal.InsertTicket(ctx, ticket)
	if errors.Is(err, dataaccess.ErrDuplicateOpenTicket) {
		r.l.Warn("Lost open-ticket race, caller must tear down the provisioned channel",
			slog.String(logging.KeyGuildID, ticket.GuildID),
			slog.String(logging.KeyUserID, ticket.UserID),
			slog.String(logging.KeyChannelID, ticket.ChannelID),
		)
		return ErrDuplicateTicket
	} else if err != nil {
		return fmt.Errorf("error recording opened ticket: %w", err)
	}
	return nil
}

func (r *registry) FindOpenByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	ticket, err := r.dal.GetOpenTicketByChannel(ctx, guildID, channelID)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		return nil, ErrNotATicket
	} else if err != nil {
		return nil, fmt.Errorf("error finding ticket by channel: %w", err)
	}
	return ticket, nil
}

func (r *registry) Close(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	ticket, err := r.dal.CloseTicket(ctx, guildID, channelID)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		return nil, ErrNotATicket
	} else if err != nil {
		return nil, fmt.Errorf("error closing ticket: %w", err)
	}
	return ticket, nil
}
