package ticketing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/custom"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
)

// DuplicateTicketError reports an open attempt by a user that already has an open ticket. It
// carries the existing channel so the caller can point the user back at it. Matches
// ErrDuplicateTicket under errors.Is.
type DuplicateTicketError struct {
	// ChannelID is the channel of the already-open ticket.
	ChannelID string
}

func (e *DuplicateTicketError) Error() string {
	return fmt.Sprintf("user already has an open ticket in channel %s", e.ChannelID)
}

func (e *DuplicateTicketError) Is(target error) bool {
	return target == ErrDuplicateTicket
}

// TranscriptAttacher delivers the transcript artifact into a channel.
type TranscriptAttacher interface {
	// AttachTranscript posts the transcript as a file attachment in the channel.
	AttachTranscript(ctx context.Context, channelID, filename string, transcript []byte) error
}

// Service drives the ticket lifecycle protocol over the registry, the provisioner and the
// transcript builder. Handlers stay thin: they authenticate the trigger, call the service and
// render the outcome.
type Service struct {
	// l is the logger.
	l *slog.Logger

	// registry owns ticket state.
	registry Registry

	// provisioner creates and destroys ticket channels.
	provisioner ChannelProvisioner

	// transcripts builds close-time transcripts.
	transcripts *TranscriptBuilder

	// attacher posts transcripts into the channel.
	attacher TranscriptAttacher
}

// NewService creates a new ticket lifecycle service.
func NewService(l *slog.Logger, registry Registry, provisioner ChannelProvisioner, transcripts *TranscriptBuilder, attacher TranscriptAttacher) *Service {
	return &Service{
		l:           l,
		registry:    registry,
		provisioner: provisioner,
		transcripts: transcripts,
		attacher:    attacher,
	}
}

// Open runs the full open protocol for a user: duplicate check, channel provisioning, then the
// authoritative insert. When a concurrent open wins the race at the insert, the channel that
// was just provisioned is torn down again and the winner's channel is reported instead, so at
// most one open ticket ever exists for the user.
func (s *Service) Open(ctx context.Context, guildID, userID, username, categoryID string) (*entities.Ticket, error) {
	if categoryID == "" {
		return nil, ErrNotConfigured
	}

	existing, err := s.registry.TryOpen(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, &DuplicateTicketError{ChannelID: existing}
	}

	ticket := &entities.Ticket{
		GuildID:   guildID,
		UserID:    userID,
		Username:  username,
		Open:      true,
		CreatedAt: custom.Now(),
	}

	channelID, err := s.provisioner.Provision(ctx, guildID, userID, categoryID, ticket.ChannelName())
	if err != nil {
		return nil, err
	}
	ticket.ChannelID = channelID

	err = s.registry.RecordOpened(ctx, ticket)
	if errors.Is(err, ErrDuplicateTicket) {
		// A concurrent open won between TryOpen and the insert. Remove the channel we just
		// created and point the user at the winner's.
		if terr := s.provisioner.Teardown(ctx, channelID); terr != nil {
			s.l.Error("Error tearing down channel after losing open race",
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, terr.Error()),
			)
		}

		winner, werr := s.registry.TryOpen(ctx, guildID, userID)
		if werr != nil {
			return nil, fmt.Errorf("error resolving winning ticket: %w", werr)
		}
		if winner == "" {
			// The winner closed again before the re-lookup, so there is no channel to point the
			// user at.
			return nil, ErrOpenContention
		}
		return nil, &DuplicateTicketError{ChannelID: winner}
	} else if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Close runs the close protocol for a channel: resolve the ticket, authorise the actor, attach
// the transcript, then commit the transition. The transcript is attached before the state
// flips so a failure between the two leaves the ticket recoverably open; a duplicate
// transcript on retry is tolerable, a lost one is not.
func (s *Service) Close(ctx context.Context, guildID, channelID, actorID string, actorIsStaff bool) (*entities.Ticket, error) {
	ticket, err := s.registry.FindOpenByChannel(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}

	if actorID != ticket.UserID && !actorIsStaff {
		return nil, ErrForbidden
	}

	transcript, err := s.transcripts.Build(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("error building transcript: %w", err)
	}

	filename := fmt.Sprintf("transcript_%s.txt", channelID)
	if err := s.attacher.AttachTranscript(ctx, channelID, filename, transcript); err != nil {
		return nil, fmt.Errorf("error attaching transcript: %w", err)
	}

	return s.registry.Close(ctx, guildID, channelID)
}

type sessionAttacher struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewTranscriptAttacher creates a TranscriptAttacher backed by a discord session.
func NewTranscriptAttacher(s *discordgo.Session) TranscriptAttacher {
	return &sessionAttacher{
		s: s,
	}
}

func (a *sessionAttacher) AttachTranscript(_ context.Context, channelID, filename string, transcript []byte) error {
	_, err := a.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: "Transcript attached. This ticket is now closed.",
		Files: []*discordgo.File{
			{
				Name:        filename,
				ContentType: "text/plain",
				Reader:      bytes.NewReader(transcript),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending transcript: %w", err)
	}
	return nil
}
