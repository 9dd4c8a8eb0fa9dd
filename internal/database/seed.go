package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
)

// SeedReport describes what a seed pass changed.
type SeedReport struct {
	BootstrapAdminEmail string `json:"bootstrap_admin_email,omitempty"`
	AdminPromoted       bool   `json:"admin_promoted"`
	AdminMissing        bool   `json:"admin_missing"`
	Noop                bool   `json:"noop"`
}

// Lines describes the bootstrap admin outcome for tool output.
func (r *SeedReport) Lines() []string {
	switch {
	case r.BootstrapAdminEmail == "":
		return []string{"no bootstrap admin configured"}
	case r.AdminMissing:
		return []string{"bootstrap admin " + r.BootstrapAdminEmail + " has not registered yet"}
	case r.AdminPromoted:
		return []string{"promoted bootstrap admin " + r.BootstrapAdminEmail}
	default:
		return []string{"bootstrap admin " + r.BootstrapAdminEmail + " already an admin"}
	}
}

// SeedSync promotes the bootstrap admin when the identity exists. An
// identity that has not registered yet is reported, not created.
func SeedSync(ctx context.Context, users repository.UserRepository, bootstrapAdminEmail string) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	email := normalizeEmail(bootstrapAdminEmail)
	report := &SeedReport{BootstrapAdminEmail: email}
	if email == "" {
		report.Noop = true
		observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
		return report, nil
	}

	u, err := users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		report.AdminMissing = true
	case err != nil:
		observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
		return nil, fmt.Errorf("lookup bootstrap admin: %w", err)
	case !u.IsAdmin:
		if err := users.SetAdmin(ctx, email, true); err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("promote bootstrap admin: %w", err)
		}
		report.AdminPromoted = true
	}

	report.Noop = !report.AdminPromoted
	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}

// SetAdminFlag grants or revokes the admin flag for the identity with email.
func SetAdminFlag(ctx context.Context, users repository.UserRepository, email string, isAdmin bool) error {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return fmt.Errorf("email is required")
	}
	return users.SetAdmin(ctx, normalized, isAdmin)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
