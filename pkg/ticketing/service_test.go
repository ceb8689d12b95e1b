package ticketing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/stretchr/testify/require"
)

// fakeProvisioner hands out sequential channel IDs and records teardowns. The optional
// afterProvision hook runs between channel creation and the registry insert, which is exactly
// the window the open race lives in.
type fakeProvisioner struct {
	next           int
	provisioned    []string
	tornDown       []string
	provisionErr   error
	afterProvision func(channelID string)
	afterTeardown  func(channelID string)
}

func (f *fakeProvisioner) Provision(_ context.Context, _, _, categoryID, _ string) (string, error) {
	if f.provisionErr != nil {
		return "", f.provisionErr
	}
	if categoryID == "bad-category" {
		return "", ErrInvalidCategory
	}
	f.next++
	id := fmt.Sprintf("chan-%d", f.next)
	f.provisioned = append(f.provisioned, id)
	if f.afterProvision != nil {
		f.afterProvision(id)
	}
	return id, nil
}

func (f *fakeProvisioner) GrantAccess(context.Context, string, string) error  { return nil }
func (f *fakeProvisioner) RevokeAccess(context.Context, string, string) error { return nil }

func (f *fakeProvisioner) Teardown(_ context.Context, channelID string) error {
	f.tornDown = append(f.tornDown, channelID)
	if f.afterTeardown != nil {
		f.afterTeardown(channelID)
	}
	return nil
}

// channelHistory is a per-channel in-memory HistoryFetcher.
type channelHistory struct {
	messages map[string][]*discordgo.Message
}

func (h *channelHistory) MessagesAfter(_ context.Context, channelID, afterID string, limit int) ([]*discordgo.Message, error) {
	msgs := h.messages[channelID]
	start := 0
	if afterID != "" {
		for i, m := range msgs {
			if m.ID == afterID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(msgs) {
		return nil, nil
	}
	end := start + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[start:end], nil
}

type fakeAttacher struct {
	attached  map[string][]byte
	attachErr error
}

func (f *fakeAttacher) AttachTranscript(_ context.Context, channelID, _ string, transcript []byte) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	if f.attached == nil {
		f.attached = make(map[string][]byte)
	}
	f.attached[channelID] = transcript
	return nil
}

type serviceFixture struct {
	svc     *Service
	dal     *fakeTicketDal
	prov    *fakeProvisioner
	history *channelHistory
	att     *fakeAttacher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	dal := new(fakeTicketDal)
	prov := new(fakeProvisioner)
	history := &channelHistory{messages: make(map[string][]*discordgo.Message)}
	att := new(fakeAttacher)

	reg := NewRegistry(dal, l)
	svc := NewService(l, reg, prov, NewTranscriptBuilder(history), att)
	return &serviceFixture{svc: svc, dal: dal, prov: prov, history: history, att: att}
}

func (f *serviceFixture) say(channelID, author, content string) {
	msgs := f.history.messages[channelID]
	f.history.messages[channelID] = append(msgs, &discordgo.Message{
		ID:        fmt.Sprintf("%s-m%d", channelID, len(msgs)+1),
		Content:   content,
		Timestamp: time.Date(2024, 5, 1, 12, len(msgs), 0, 0, time.UTC),
		Author:    &discordgo.User{Username: author},
	})
}

func TestServiceOpenRequiresConfiguredCategory(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Open(context.Background(), "g1", "u1", "alice", "")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Empty(t, f.prov.provisioned)
}

func TestServiceOpenProvisioningFailureLeavesNoRecord(t *testing.T) {
	f := newServiceFixture(t)
	f.prov.provisionErr = errors.New("api down")

	_, err := f.svc.Open(context.Background(), "g1", "u1", "alice", "cat")
	require.Error(t, err)
	require.Equal(t, 0, f.dal.openCount("g1", "u1"))
}

func TestServiceOpenIsIdempotentFromTheUsersPerspective(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.NoError(t, err)
	require.Equal(t, "chan-1", ticket.ChannelID)
	require.Equal(t, "ticket-alice", ticket.ChannelName())

	// A repeated press returns the same channel and never provisions a second one.
	_, err = f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.ErrorIs(t, err, ErrDuplicateTicket)
	dup := new(DuplicateTicketError)
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "chan-1", dup.ChannelID)
	require.Len(t, f.prov.provisioned, 1)
}

func TestServiceOpenRaceLoserTearsDownItsChannel(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// A concurrent open slips in after our channel is provisioned but before our insert.
	f.prov.afterProvision = func(channelID string) {
		if channelID != "chan-1" {
			return
		}
		require.NoError(t, f.dal.InsertTicket(ctx, openTicket("g1", "u1", "winner-chan")))
	}

	_, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.ErrorIs(t, err, ErrDuplicateTicket)

	dup := new(DuplicateTicketError)
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "winner-chan", dup.ChannelID, "loser must report the winning channel")
	require.Equal(t, []string{"chan-1"}, f.prov.tornDown, "loser must tear down its own channel")
	require.Equal(t, 1, f.dal.openCount("g1", "u1"))
}

func TestServiceOpenRaceLoserWithVanishedWinner(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// A concurrent open wins before our insert, then closes again before we can look the
	// winning channel up. There is no channel to point the user at, so the open reports
	// contention rather than a duplicate with an empty channel.
	f.prov.afterProvision = func(channelID string) {
		if channelID != "chan-1" {
			return
		}
		require.NoError(t, f.dal.InsertTicket(ctx, openTicket("g1", "u1", "winner-chan")))
	}
	f.prov.afterTeardown = func(channelID string) {
		if channelID != "chan-1" {
			return
		}
		_, err := f.dal.CloseTicket(ctx, "g1", "winner-chan")
		require.NoError(t, err)
	}

	_, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.ErrorIs(t, err, ErrOpenContention)
	require.NotErrorIs(t, err, ErrDuplicateTicket)
	require.Equal(t, []string{"chan-1"}, f.prov.tornDown)
	require.Equal(t, 0, f.dal.openCount("g1", "u1"), "a retry must be possible")
}

func TestServiceCloseByOwnerAttachesTranscript(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.NoError(t, err)

	f.say(ticket.ChannelID, "alice", "hello\nI need help")
	f.say(ticket.ChannelID, "staffer", "on it")

	closed, err := f.svc.Close(ctx, "g1", ticket.ChannelID, "u1", false)
	require.NoError(t, err)
	require.False(t, closed.Open)

	transcript := string(f.att.attached[ticket.ChannelID])
	lines := strings.Split(strings.TrimRight(transcript, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "alice: hello I need help")
	require.Contains(t, lines[1], "staffer: on it")
}

func TestServiceCloseByNonOwnerNonStaffIsForbidden(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, "g1", ticket.ChannelID, "intruder", false)
	require.ErrorIs(t, err, ErrForbidden)

	// No mutation, no transcript.
	require.Equal(t, 1, f.dal.openCount("g1", "u1"))
	require.Empty(t, f.att.attached)
}

func TestServiceCloseByStaffNonOwnerSucceeds(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.NoError(t, err)

	closed, err := f.svc.Close(ctx, "g1", ticket.ChannelID, "mod", true)
	require.NoError(t, err)
	require.False(t, closed.Open)
}

func TestServiceCloseOnNonTicketChannel(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Close(context.Background(), "g1", "random-chan", "u1", true)
	require.ErrorIs(t, err, ErrNotATicket)
}

func TestServiceCloseAttachFailureLeavesTicketOpen(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ticket, err := f.svc.Open(ctx, "g1", "u1", "alice", "cat")
	require.NoError(t, err)

	f.att.attachErr = errors.New("upload failed")
	_, err = f.svc.Close(ctx, "g1", ticket.ChannelID, "u1", false)
	require.Error(t, err)

	// The transition never committed; the close can be retried.
	require.Equal(t, 1, f.dal.openCount("g1", "u1"))

	f.att.attachErr = nil
	_, err = f.svc.Close(ctx, "g1", ticket.ChannelID, "u1", false)
	require.NoError(t, err)
}

// TestServiceLifecycleScenario walks the full open, duplicate press, staff close, reopen
// sequence end to end.
func TestServiceLifecycleScenario(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// A opens a ticket and gets C1.
	first, err := f.svc.Open(ctx, "g", "A", "abby", "cat")
	require.NoError(t, err)
	require.Equal(t, "chan-1", first.ChannelID)

	// A presses open again and is pointed back at C1.
	_, err = f.svc.Open(ctx, "g", "A", "abby", "cat")
	dup := new(DuplicateTicketError)
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "chan-1", dup.ChannelID)

	// Staff closes C1; the transcript has at least one line even though nothing was said.
	closed, err := f.svc.Close(ctx, "g", "chan-1", "mod", true)
	require.NoError(t, err)
	require.False(t, closed.Open)
	require.Equal(t, EmptyTranscript+"\n", string(f.att.attached["chan-1"]))

	// A opens a third time and gets a fresh channel; the closed row does not block it.
	third, err := f.svc.Open(ctx, "g", "A", "abby", "cat")
	require.NoError(t, err)
	require.Equal(t, "chan-2", third.ChannelID)
	require.Equal(t, 1, f.dal.openCount("g", "A"))
	require.Len(t, f.dal.tickets, 2)
}
