package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/helpdesk/pkg/dataaccess"
	"github.com/Jacobbrewer1/helpdesk/pkg/entities"
	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
)

// SetConfigOutcome is the result of a set command.
type SetConfigOutcome int

const (
	OutcomeUnchanged SetConfigOutcome = iota
	OutcomeCreated
	OutcomeAdminsReplaced
	OutcomeCancelled
	OutcomeTimedOut
	OutcomeLogChannelSet
	OutcomeLogChannelUpdated
	OutcomeLogChannelAlreadySet
)

func (o SetConfigOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAdminsReplaced:
		return "admins_replaced"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeLogChannelSet:
		return "log_channel_set"
	case OutcomeLogChannelUpdated:
		return "log_channel_updated"
	case OutcomeLogChannelAlreadySet:
		return "log_channel_already_set"
	default:
		return "unchanged"
	}
}

// SetConfigRequest holds the options of the set command. Empty fields were not supplied.
type SetConfigRequest struct {
	LogChannelID string
	AdminID      string
}

type SetConfigResult struct {
	Outcome SetConfigOutcome

	// LogChannelID is the log channel after the command.
	LogChannelID string

	// PreviousLogChannelID is the log channel before the command.
	PreviousLogChannelID string

	// AdminID is the admin that replaced the admin set.
	AdminID string
}

// SetConfig creates the configuration of a guild or updates it. Replacing the admin set needs confirmation.
func (s *Service) SetConfig(ctx context.Context, c *Caller, req *SetConfigRequest, confirmer Confirmer) (*SetConfigResult, error) {
	if err := s.authorize(ctx, c); err != nil {
		return nil, err
	}

	cfg, err := s.guilds.GetConfig(ctx, c.GuildID)
	switch {
	case errors.Is(err, dataaccess.ErrNotFound):
		created, err := s.createConfig(ctx, c.GuildID, req)
		if err != nil {
			return nil, err
		} else if created {
			return &SetConfigResult{
				Outcome:      OutcomeCreated,
				LogChannelID: req.LogChannelID,
				AdminID:      req.AdminID,
			}, nil
		}

		// Another command created the row first.
		cfg, err = s.guilds.GetConfig(ctx, c.GuildID)
		if err != nil {
			return nil, fmt.Errorf("error getting config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("error getting config: %w", err)
	}

	res := &SetConfigResult{
		Outcome: OutcomeUnchanged,
		AdminID: req.AdminID,
	}
	if cfg.LogChannelID != nil {
		res.PreviousLogChannelID = *cfg.LogChannelID
		res.LogChannelID = *cfg.LogChannelID
	}

	if req.AdminID != "" {
		res.Outcome, err = s.replaceAdmins(ctx, c, req, confirmer)
		if err != nil {
			return nil, err
		}
		if res.Outcome == OutcomeAdminsReplaced && req.LogChannelID != "" {
			res.LogChannelID = req.LogChannelID
		}
		return res, nil
	}

	if req.LogChannelID == "" {
		return res, nil
	}

	changed, err := s.guilds.SetLogChannel(ctx, c.GuildID, &req.LogChannelID)
	if err != nil {
		return nil, storeError(fmt.Errorf("error setting log channel: %w", err))
	}

	res.LogChannelID = req.LogChannelID
	switch {
	case !changed:
		res.Outcome = OutcomeLogChannelAlreadySet
	case res.PreviousLogChannelID != "":
		res.Outcome = OutcomeLogChannelUpdated
	default:
		res.Outcome = OutcomeLogChannelSet
	}
	return res, nil
}

// createConfig reports false when the row already existed.
func (s *Service) createConfig(ctx context.Context, guildID string, req *SetConfigRequest) (bool, error) {
	var logChannelID *string
	if req.LogChannelID != "" {
		logChannelID = &req.LogChannelID
	}

	admins := make([]string, 0, 1)
	if req.AdminID != "" {
		admins = append(admins, req.AdminID)
	}

	err := s.guilds.CreateConfig(ctx, guildID, logChannelID, admins)
	if errors.Is(err, dataaccess.ErrConflict) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("error creating config: %w", err)
	}

	s.l.Info("Guild configured", slog.String(logging.KeyGuild, guildID))
	return true, nil
}

func (s *Service) replaceAdmins(ctx context.Context, c *Caller, req *SetConfigRequest, confirmer Confirmer) (SetConfigOutcome, error) {
	if confirmer == nil {
		return OutcomeUnchanged, errors.New("replacing admins requires a confirmer")
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	ok, err := confirmer.Confirm(confirmCtx,
		fmt.Sprintf("Are you sure you want to replace all admin users with <@%s>?", req.AdminID))
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimedOut, nil
	case err != nil:
		return OutcomeUnchanged, fmt.Errorf("error confirming admin replacement: %w", err)
	case !ok:
		return OutcomeCancelled, nil
	}

	if err := s.guilds.ReplaceAdmins(ctx, c.GuildID, []string{req.AdminID}); err != nil {
		return OutcomeUnchanged, storeError(fmt.Errorf("error replacing admins: %w", err))
	}

	if req.LogChannelID != "" {
		if _, err := s.guilds.SetLogChannel(ctx, c.GuildID, &req.LogChannelID); err != nil {
			return OutcomeUnchanged, storeError(fmt.Errorf("error setting log channel: %w", err))
		}
	}

	s.l.Info("Admins replaced",
		slog.String(logging.KeyGuild, c.GuildID),
		slog.String(logging.KeyUser, c.UserID),
	)
	return OutcomeAdminsReplaced, nil
}

// ViewConfig returns the configuration of the caller's guild.
func (s *Service) ViewConfig(ctx context.Context, c *Caller) (*entities.GuildConfig, error) {
	if err := s.authorize(ctx, c); err != nil {
		return nil, err
	}

	cfg, err := s.guilds.GetConfig(ctx, c.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrNotConfigured
	} else if err != nil {
		return nil, fmt.Errorf("error getting config: %w", err)
	}
	return cfg, nil
}

// AddConfigRequest holds the options of the add command. At least one must be set.
type AddConfigRequest struct {
	AdminID      string
	CategoryName string
}

type AddConfigResult struct {
	AdminID    string
	AdminAdded bool

	Category *entities.Category

	// CategoryCreated is set when the channel category did not exist and was created.
	CategoryCreated bool

	// CategoryAdded is false when the category was already a ticket category.
	CategoryAdded bool
}

// AddConfig adds an admin, a ticket category, or both.
func (s *Service) AddConfig(ctx context.Context, c *Caller, req *AddConfigRequest) (*AddConfigResult, error) {
	if req.AdminID == "" && req.CategoryName == "" {
		return nil, ErrMissingOption
	}

	if err := s.authorize(ctx, c); err != nil {
		return nil, err
	}

	// The channel category is only created for configured guilds.
	if _, err := s.guilds.GetLogChannel(ctx, c.GuildID); errors.Is(err, dataaccess.ErrNotFound) {
		return nil, ErrNotConfigured
	} else if err != nil {
		return nil, fmt.Errorf("error getting config: %w", err)
	}

	res := &AddConfigResult{AdminID: req.AdminID}

	if req.AdminID != "" {
		added, err := s.guilds.AddAdmin(ctx, c.GuildID, req.AdminID)
		if err != nil {
			return nil, storeError(fmt.Errorf("error adding admin: %w", err))
		}
		res.AdminAdded = added
	}

	if req.CategoryName != "" {
		id, created, err := s.platform.EnsureCategory(ctx, c.GuildID, req.CategoryName)
		if err != nil {
			return nil, fmt.Errorf("error ensuring category: %w", err)
		}

		res.Category = &entities.Category{ID: id, Name: req.CategoryName}
		res.CategoryCreated = created

		res.CategoryAdded, err = s.guilds.AddCategory(ctx, c.GuildID, *res.Category)
		if err != nil {
			return nil, storeError(fmt.Errorf("error adding category: %w", err))
		}
	}

	return res, nil
}

// RemoveConfigRequest holds the options of the remove command. At least one must be set.
type RemoveConfigRequest struct {
	AdminID    string
	CategoryID string
}

type RemoveConfigResult struct {
	AdminID      string
	AdminRemoved bool

	CategoryID      string
	CategoryRemoved bool
}

// RemoveConfig removes an admin, a ticket category, or both. Removing an absent entry is not an error.
func (s *Service) RemoveConfig(ctx context.Context, c *Caller, req *RemoveConfigRequest) (*RemoveConfigResult, error) {
	if req.AdminID == "" && req.CategoryID == "" {
		return nil, ErrMissingOption
	}

	if err := s.authorize(ctx, c); err != nil {
		return nil, err
	}

	res := &RemoveConfigResult{
		AdminID:    req.AdminID,
		CategoryID: req.CategoryID,
	}

	var err error
	if req.AdminID != "" {
		res.AdminRemoved, err = s.guilds.RemoveAdmin(ctx, c.GuildID, req.AdminID)
		if err != nil {
			return nil, storeError(fmt.Errorf("error removing admin: %w", err))
		}
	}

	if req.CategoryID != "" {
		res.CategoryRemoved, err = s.guilds.RemoveCategory(ctx, c.GuildID, req.CategoryID)
		if err != nil {
			return nil, storeError(fmt.Errorf("error removing category: %w", err))
		}
	}

	return res, nil
}

// ClearConfig empties the admin set and unsets the log channel. Categories and the ticket limit are kept.
func (s *Service) ClearConfig(ctx context.Context, c *Caller) error {
	if err := s.authorize(ctx, c); err != nil {
		return err
	}

	if err := s.guilds.Clear(ctx, c.GuildID); err != nil {
		return storeError(fmt.Errorf("error clearing config: %w", err))
	}

	s.l.Info("Config cleared",
		slog.String(logging.KeyGuild, c.GuildID),
		slog.String(logging.KeyUser, c.UserID),
	)
	return nil
}

// SetTicketLimit caps the open tickets per member. Zero removes the cap.
func (s *Service) SetTicketLimit(ctx context.Context, c *Caller, limit int) (*int, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	if err := s.authorize(ctx, c); err != nil {
		return nil, err
	}

	var capped *int
	if limit > 0 {
		capped = &limit
	}

	if err := s.guilds.SetTicketLimit(ctx, c.GuildID, capped); err != nil {
		return nil, storeError(fmt.Errorf("error setting ticket limit: %w", err))
	}
	return capped, nil
}
