package ticketing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/stretchr/testify/require"
)

const testGuild = "g1"

// fakePlatform keeps categories and channels in memory.
type fakePlatform struct {
	mu sync.Mutex

	next       int
	categories map[string]string
	channels   map[string]*TicketChannelSpec

	createErr error
	deleteErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		categories: make(map[string]string),
		channels:   make(map[string]*TicketChannelSpec),
	}
}

func (f *fakePlatform) EnsureCategory(_ context.Context, _ string, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id, ok := f.categories[name]; ok {
		return id, false, nil
	}

	f.next++
	id := fmt.Sprintf("cat%d", f.next)
	f.categories[name] = id
	return id, true, nil
}

func (f *fakePlatform) CreateTicketChannel(_ context.Context, spec *TicketChannelSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return "", f.createErr
	}

	f.next++
	id := fmt.Sprintf("chan%d", f.next)
	f.channels[id] = spec
	return id, nil
}

func (f *fakePlatform) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.channels[channelID]; !ok {
		return ErrChannelNotFound
	}
	delete(f.channels, channelID)
	return nil
}

func (f *fakePlatform) channel(id string) (*TicketChannelSpec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	spec, ok := f.channels[id]
	return spec, ok
}

func (f *fakePlatform) channelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.channels)
}

type fixture struct {
	svc      *Service
	platform *fakePlatform
	guilds   dataaccess.GuildDal
	tickets  dataaccess.TicketDal
	db       *dataaccess.DB
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := dataaccess.Open(context.Background(), l, filepath.Join(t.TempDir(), "helpdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, db.Migrate(context.Background()))

	f := &fixture{
		platform: newFakePlatform(),
		guilds:   dataaccess.NewGuildDal(l, db),
		tickets:  dataaccess.NewTicketDal(l, db),
		db:       db,
	}
	f.svc = NewService(l, f.guilds, f.tickets, f.platform)
	return f
}

// configure creates the guild config with a "support" category.
func (f *fixture) configure(t *testing.T, admins ...string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.guilds.CreateConfig(ctx, testGuild, nil, admins))
	_, err := f.guilds.AddCategory(ctx, testGuild, entities.Category{ID: "support", Name: "Support"})
	require.NoError(t, err)
}

func guildOwner() *Caller {
	return &Caller{GuildID: testGuild, UserID: "owner", IsGuildOwner: true}
}

func member(id string, roles ...string) *Caller {
	return &Caller{GuildID: testGuild, UserID: id, RoleIDs: roles}
}

func confirmWith(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) {
		return answer, nil
	})
}

func requireKind(t *testing.T, want Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, KindOf(err), "unexpected kind for %v", err)
}

var errBoom = errors.New("boom")
