package ticketing

import (
	"context"
	"sync"
	"testing"

	"github.com/k1llbot/k1ll/pkg/custom"
	"github.com/k1llbot/k1ll/pkg/dataaccess"
	"github.com/k1llbot/k1ll/pkg/entities"
	"github.com/k1llbot/k1ll/pkg/logging"
	"github.com/stretchr/testify/require"
)

// fakeTicketDal is an in-memory TicketDal that enforces the same one-open-ticket-per-user
// rule the unique partial index enforces in the store, including under concurrent inserts.
type fakeTicketDal struct {
	mu      sync.Mutex
	tickets []*entities.Ticket
}

func (f *fakeTicketDal) InsertTicket(_ context.Context, ticket *entities.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Open && t.GuildID == ticket.GuildID && t.UserID == ticket.UserID {
			return dataaccess.ErrDuplicateOpenTicket
		}
	}
	c := *ticket
	f.tickets = append(f.tickets, &c)
	return nil
}

func (f *fakeTicketDal) GetOpenTicketByUser(_ context.Context, guildID, userID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Open && t.GuildID == guildID && t.UserID == userID {
			c := *t
			return &c, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeTicketDal) GetOpenTicketByChannel(_ context.Context, guildID, channelID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Open && t.GuildID == guildID && t.ChannelID == channelID {
			c := *t
			return &c, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeTicketDal) CloseTicket(_ context.Context, guildID, channelID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Open && t.GuildID == guildID && t.ChannelID == channelID {
			t.Open = false
			c := *t
			return &c, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeTicketDal) EnsureIndexes(context.Context) error {
	return nil
}

func (f *fakeTicketDal) openCount(guildID, userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickets {
		if t.Open && t.GuildID == guildID && t.UserID == userID {
			n++
		}
	}
	return n
}

func newTestRegistry(t *testing.T) (Registry, *fakeTicketDal) {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")
	dal := new(fakeTicketDal)
	return NewRegistry(dal, l), dal
}

func openTicket(guildID, userID, channelID string) *entities.Ticket {
	return &entities.Ticket{
		GuildID:   guildID,
		UserID:    userID,
		Username:  "tester",
		ChannelID: channelID,
		Open:      true,
		CreatedAt: custom.Now(),
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.RecordOpened(ctx, openTicket("g1", "u1", "c1")))

	got, err := reg.FindOpenByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.True(t, got.Open)
}

func TestRegistryTryOpenReturnsExistingChannel(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	existing, err := reg.TryOpen(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Empty(t, existing, "no ticket yet, caller should proceed")

	require.NoError(t, reg.RecordOpened(ctx, openTicket("g1", "u1", "c1")))

	existing, err = reg.TryOpen(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Equal(t, "c1", existing)

	// The duplicate check is keyed on the user, not the channel, and is guild scoped.
	existing, err = reg.TryOpen(ctx, "g2", "u1")
	require.NoError(t, err)
	require.Empty(t, existing)
}

func TestRegistryRecordOpenedRejectsDuplicate(t *testing.T) {
	reg, dal := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.RecordOpened(ctx, openTicket("g1", "u1", "c1")))

	err := reg.RecordOpened(ctx, openTicket("g1", "u1", "c2"))
	require.ErrorIs(t, err, ErrDuplicateTicket)
	require.Equal(t, 1, dal.openCount("g1", "u1"))
}

func TestRegistryRecordOpenedRejectsClosedTicket(t *testing.T) {
	reg, _ := newTestRegistry(t)

	ticket := openTicket("g1", "u1", "c1")
	ticket.Open = false
	require.Error(t, reg.RecordOpened(context.Background(), ticket))
}

func TestRegistryCloseIsIdempotentAtCaller(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.RecordOpened(ctx, openTicket("g1", "u1", "c1")))

	closed, err := reg.Close(ctx, "g1", "c1")
	require.NoError(t, err)
	require.False(t, closed.Open)

	// A second close must observe NotATicket, never silently succeed.
	_, err = reg.Close(ctx, "g1", "c1")
	require.ErrorIs(t, err, ErrNotATicket)

	// A channel that never was a ticket looks the same.
	_, err = reg.Close(ctx, "g1", "never-a-ticket")
	require.ErrorIs(t, err, ErrNotATicket)
}

func TestRegistryClosedTicketDoesNotBlockReopen(t *testing.T) {
	reg, dal := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.RecordOpened(ctx, openTicket("g1", "u1", "c1")))
	_, err := reg.Close(ctx, "g1", "c1")
	require.NoError(t, err)

	require.NoError(t, reg.RecordOpened(ctx, openTicket("g1", "u1", "c2")))
	require.Equal(t, 1, dal.openCount("g1", "u1"))

	// The closed row is retained, not replaced.
	require.Len(t, dal.tickets, 2)
}

func TestRegistryUniquenessUnderConcurrentOpens(t *testing.T) {
	reg, dal := newTestRegistry(t)
	ctx := context.Background()

	const attempts = 32

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- reg.RecordOpened(ctx, openTicket("g1", "u1", "c"+string(rune('a'+n))))
		}(i)
	}
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrDuplicateTicket)
			losses++
		}
	}

	require.Equal(t, 1, wins)
	require.Equal(t, attempts-1, losses)
	require.Equal(t, 1, dal.openCount("g1", "u1"))
}
