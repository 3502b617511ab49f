package ticketing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfig_LogChannel(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	res, err := f.svc.SetConfig(ctx, guildOwner(), &SetConfigRequest{LogChannelID: "log1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)

	var rows int
	require.NoError(t, f.db.Get(&rows, `SELECT COUNT(*) FROM config WHERE guild_id = ?`, testGuild))
	require.Equal(t, 1, rows)

	before, err := f.guilds.GetConfig(ctx, testGuild)
	require.NoError(t, err)

	res, err = f.svc.SetConfig(ctx, guildOwner(), &SetConfigRequest{LogChannelID: "log1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLogChannelAlreadySet, res.Outcome)

	after, err := f.guilds.GetConfig(ctx, testGuild)
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Time().Equal(after.UpdatedAt.Time()), "an unchanged log channel performs no write")

	res, err = f.svc.SetConfig(ctx, guildOwner(), &SetConfigRequest{LogChannelID: "log2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLogChannelUpdated, res.Outcome)
	assert.Equal(t, "log1", res.PreviousLogChannelID)
	assert.Equal(t, "log2", res.LogChannelID)

	res, err = f.svc.SetConfig(ctx, guildOwner(), &SetConfigRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
}

func TestSetConfig_LogChannelSetAfterCreate(t *testing.T) {
	f := setupService(t)
	f.configure(t)

	res, err := f.svc.SetConfig(context.Background(), guildOwner(), &SetConfigRequest{LogChannelID: "log1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLogChannelSet, res.Outcome)
}

func TestSetConfig_CreatedWithAdmin(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	// A new row takes the admin without asking.
	res, err := f.svc.SetConfig(ctx, guildOwner(), &SetConfigRequest{AdminID: "a1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)

	cfg, err := f.svc.ViewConfig(ctx, member("a1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, cfg.AdminIDs)
	assert.Nil(t, cfg.LogChannelID)
}

func TestSetConfig_PermissionDenied(t *testing.T) {
	f := setupService(t)

	// Only the guild owner may create the first config.
	_, err := f.svc.SetConfig(context.Background(), member("u1"), &SetConfigRequest{LogChannelID: "log1"}, nil)
	require.ErrorIs(t, err, ErrPermissionDenied)
	requireKind(t, KindPermissionDenied, err)

	_, err = f.guilds.GetConfig(context.Background(), testGuild)
	require.Error(t, err)
}

func TestSetConfig_ReplaceAdmins(t *testing.T) {
	tests := []struct {
		name       string
		confirmer  Confirmer
		timeout    time.Duration
		want       SetConfigOutcome
		wantAdmins []string
		wantLog    *string
	}{
		{
			name:       "Confirmed",
			confirmer:  confirmWith(true),
			want:       OutcomeAdminsReplaced,
			wantAdmins: []string{"a9"},
			wantLog:    strPtr("log9"),
		},
		{
			name:       "Declined",
			confirmer:  confirmWith(false),
			want:       OutcomeCancelled,
			wantAdmins: []string{"a1", "a2"},
		},
		{
			name: "TimedOut",
			confirmer: ConfirmFunc(func(ctx context.Context, _ string) (bool, error) {
				<-ctx.Done()
				return false, ctx.Err()
			}),
			timeout:    10 * time.Millisecond,
			want:       OutcomeTimedOut,
			wantAdmins: []string{"a1", "a2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupService(t)
			f.configure(t, "a1", "a2")
			if tt.timeout > 0 {
				f.svc.confirmTimeout = tt.timeout
			}
			ctx := context.Background()

			res, err := f.svc.SetConfig(ctx, member("a1"), &SetConfigRequest{AdminID: "a9", LogChannelID: "log9"}, tt.confirmer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)

			cfg, err := f.guilds.GetConfig(ctx, testGuild)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmins, cfg.AdminIDs)
			assert.Equal(t, tt.wantLog, cfg.LogChannelID)
		})
	}
}

func TestSetConfig_ConfirmPrompt(t *testing.T) {
	f := setupService(t)
	f.configure(t, "a1")

	var prompt string
	confirmer := ConfirmFunc(func(ctx context.Context, p string) (bool, error) {
		prompt = p
		_, ok := ctx.Deadline()
		assert.True(t, ok, "the confirmation wait is bounded")
		return false, nil
	})

	_, err := f.svc.SetConfig(context.Background(), guildOwner(), &SetConfigRequest{AdminID: "a9"}, confirmer)
	require.NoError(t, err)
	assert.Contains(t, prompt, "<@a9>")
}

func TestViewConfig(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.ViewConfig(ctx, guildOwner())
	require.ErrorIs(t, err, ErrNotConfigured)

	f.configure(t, "role1")

	// Admin entries may name roles.
	cfg, err := f.svc.ViewConfig(ctx, member("u1", "role1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"role1"}, cfg.AdminIDs)
	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "support", cfg.Categories[0].ID)

	_, err = f.svc.ViewConfig(ctx, member("u1"))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAddRemoveAdmin_RoundTrip(t *testing.T) {
	f := setupService(t)
	f.configure(t)
	ctx := context.Background()

	res, err := f.svc.AddConfig(ctx, guildOwner(), &AddConfigRequest{AdminID: "a1"})
	require.NoError(t, err)
	assert.True(t, res.AdminAdded)

	res, err = f.svc.AddConfig(ctx, guildOwner(), &AddConfigRequest{AdminID: "a1"})
	require.NoError(t, err)
	assert.False(t, res.AdminAdded, "adding twice keeps one entry")

	cfg, err := f.svc.ViewConfig(ctx, guildOwner())
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, cfg.AdminIDs)

	// The new admin passes the gate on the next call.
	_, err = f.svc.ViewConfig(ctx, member("a1"))
	require.NoError(t, err)

	removed, err := f.svc.RemoveConfig(ctx, guildOwner(), &RemoveConfigRequest{AdminID: "a1"})
	require.NoError(t, err)
	assert.True(t, removed.AdminRemoved)

	cfg, err = f.svc.ViewConfig(ctx, guildOwner())
	require.NoError(t, err)
	assert.Empty(t, cfg.AdminIDs)

	_, err = f.svc.ViewConfig(ctx, member("a1"))
	require.ErrorIs(t, err, ErrPermissionDenied)

	removed, err = f.svc.RemoveConfig(ctx, guildOwner(), &RemoveConfigRequest{AdminID: "a1"})
	require.NoError(t, err)
	assert.False(t, removed.AdminRemoved)
}

func TestAddConfig_Category(t *testing.T) {
	f := setupService(t)
	f.configure(t)
	ctx := context.Background()

	res, err := f.svc.AddConfig(ctx, guildOwner(), &AddConfigRequest{CategoryName: "Billing"})
	require.NoError(t, err)
	assert.True(t, res.CategoryCreated)
	assert.True(t, res.CategoryAdded)
	require.NotNil(t, res.Category)
	assert.Equal(t, "Billing", res.Category.Name)

	again, err := f.svc.AddConfig(ctx, guildOwner(), &AddConfigRequest{CategoryName: "Billing"})
	require.NoError(t, err)
	assert.False(t, again.CategoryCreated)
	assert.False(t, again.CategoryAdded)
	assert.Equal(t, res.Category.ID, again.Category.ID)

	cfg, err := f.svc.ViewConfig(ctx, guildOwner())
	require.NoError(t, err)
	require.Len(t, cfg.Categories, 2)

	removed, err := f.svc.RemoveConfig(ctx, guildOwner(), &RemoveConfigRequest{CategoryID: res.Category.ID})
	require.NoError(t, err)
	assert.True(t, removed.CategoryRemoved)

	ok, err := f.guilds.HasCategory(ctx, testGuild, res.Category.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddConfig_Errors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.AddConfig(ctx, guildOwner(), &AddConfigRequest{})
	require.ErrorIs(t, err, ErrMissingOption)
	requireKind(t, KindInvalidInput, err)

	_, err = f.svc.AddConfig(ctx, guildOwner(), &AddConfigRequest{CategoryName: "Billing"})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, f.platform.categories, "no category is created for an unconfigured guild")

	_, err = f.svc.RemoveConfig(ctx, guildOwner(), &RemoveConfigRequest{})
	require.ErrorIs(t, err, ErrMissingOption)

	_, err = f.svc.RemoveConfig(ctx, guildOwner(), &RemoveConfigRequest{AdminID: "a1"})
	require.ErrorIs(t, err, ErrNotConfigured)

	f.configure(t)
	_, err = f.svc.AddConfig(ctx, member("u1"), &AddConfigRequest{AdminID: "u1"})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestClearConfig(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.ClearConfig(ctx, guildOwner()), ErrNotConfigured)

	_, err := f.svc.SetConfig(ctx, guildOwner(), &SetConfigRequest{AdminID: "a1", LogChannelID: "log1"}, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearConfig(ctx, member("a1")))

	cfg, err := f.svc.ViewConfig(ctx, guildOwner())
	require.NoError(t, err)
	assert.Empty(t, cfg.AdminIDs)
	assert.Nil(t, cfg.LogChannelID)

	require.ErrorIs(t, f.svc.ClearConfig(ctx, member("a1")), ErrPermissionDenied)
}

func TestSetTicketLimit(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.SetTicketLimit(ctx, guildOwner(), -1)
	require.ErrorIs(t, err, ErrInvalidLimit)

	_, err = f.svc.SetTicketLimit(ctx, guildOwner(), 2)
	require.ErrorIs(t, err, ErrNotConfigured)

	f.configure(t)

	got, err := f.svc.SetTicketLimit(ctx, guildOwner(), 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, *got)

	got, err = f.svc.SetTicketLimit(ctx, guildOwner(), 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	cfg, err := f.guilds.GetConfig(ctx, testGuild)
	require.NoError(t, err)
	assert.Nil(t, cfg.MaxTicketsPerUser)
}

func strPtr(s string) *string {
	return &s
}
