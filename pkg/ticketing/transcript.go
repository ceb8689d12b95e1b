package ticketing

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"golang.org/x/time/rate"
)

const (
	// historyPageSize is the number of messages fetched per history request.
	historyPageSize = 100

	// transcriptTimeFormat is the per-line timestamp format.
	transcriptTimeFormat = "02/01 15:04"

	// EmptyTranscript is the artifact produced for a channel with no messages.
	EmptyTranscript = "No messages."
)

// HistoryFetcher pages through a channel's message history.
type HistoryFetcher interface {
	// MessagesAfter returns up to limit messages strictly after afterID, oldest first. An
	// empty afterID starts from the beginning of the channel. An empty result means the
	// history is exhausted.
	MessagesAfter(ctx context.Context, channelID, afterID string, limit int) ([]*discordgo.Message, error)
}

// TranscriptBuilder linearises a channel's full message history into an immutable text
// artifact, one line per message.
type TranscriptBuilder struct {
	// fetcher pages the channel history.
	fetcher HistoryFetcher

	// limiter paces history requests so a long ticket does not burn through the platform's
	// rate budget.
	limiter *rate.Limiter
}

// NewTranscriptBuilder creates a new transcript builder.
func NewTranscriptBuilder(fetcher HistoryFetcher) *TranscriptBuilder {
	return &TranscriptBuilder{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// Build renders the complete history of the channel, oldest first and without truncation.
// Each message becomes exactly one `[timestamp] author: content` line with newlines in the
// content flattened to spaces. A channel with no messages yields a single placeholder line.
func (b *TranscriptBuilder) Build(ctx context.Context, channelID string) ([]byte, error) {
	buf := new(bytes.Buffer)

	afterID := ""
	total := 0
	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("error waiting for history rate limit: %w", err)
		}

		page, err := b.fetcher.MessagesAfter(ctx, channelID, afterID, historyPageSize)
		if err != nil {
			return nil, fmt.Errorf("error fetching channel history: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, m := range page {
			buf.WriteString(formatTranscriptLine(m))
			buf.WriteByte('\n')
		}
		total += len(page)
		afterID = page[len(page)-1].ID
	}

	if total == 0 {
		buf.WriteString(EmptyTranscript)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func formatTranscriptLine(m *discordgo.Message) string {
	author := "unknown"
	if m.Author != nil {
		author = m.Author.Username
	}
	return fmt.Sprintf("[%s] %s: %s",
		m.Timestamp.UTC().Format(transcriptTimeFormat),
		author,
		flattenContent(m.Content),
	)
}

var contentFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flattenContent(content string) string {
	return contentFlattener.Replace(content)
}

type sessionHistory struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewHistoryFetcher creates a HistoryFetcher backed by a discord session.
func NewHistoryFetcher(s *discordgo.Session) HistoryFetcher {
	return &sessionHistory{
		s: s,
	}
}

func (h *sessionHistory) MessagesAfter(_ context.Context, channelID, afterID string, limit int) ([]*discordgo.Message, error) {
	msgs, err := h.s.ChannelMessages(channelID, limit, "", afterID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting channel messages: %w", err)
	}

	// The API returns newest first; the transcript contract is oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
