// Package services contains the server-side business logic: the settings
// store semantics and the account provisioning gateway.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/logging"
	settingsrepo "github.com/aleksvolk/connectboard/internal/server/repositories/settings"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// DefaultUserID is the single logical tenant of the demo deployment.
const DefaultUserID = "default"

// SettingsService implements the durable settings store contract on top of
// the repository: whole-record saves and read-merge-write category updates.
type SettingsService struct {
	repo   settingsrepo.Repository
	logger logging.Logger
}

func NewSettingsService(repo settingsrepo.Repository, logger logging.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

// Get returns the stored record, or common.ErrorNotFound when the user has
// never saved anything. Decode failures surface as common.ErrCorruptRecord;
// they are never silently replaced with defaults.
func (s *SettingsService) Get(ctx context.Context, userID string) (*settings.Record, error) {
	return s.repo.Get(ctx, userID)
}

// Save overwrites every category wholesale. Callers must pre-merge; this is
// the wire contract for whole-record writes from the client synchronizer.
func (s *SettingsService) Save(ctx context.Context, userID string, record settings.Record) (*settings.Record, error) {
	if err := s.repo.Save(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	s.logger.Debug(ctx, "settings saved", "user_id", userID)
	return &record, nil
}

// UpdateCategory loads the current record (defaults if none), merges the
// updates into only the named category and saves the result.
func (s *SettingsService) UpdateCategory(ctx context.Context, userID, category string, updates map[string]any) (*settings.Record, error) {
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		defaults := settings.Default()
		current = &defaults
	}

	merged, err := settings.MergeCategory(*current, category, updates)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, userID, merged); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	s.logger.Debug(ctx, "settings category updated", "user_id", userID, "category", category)
	return &merged, nil
}

// Delete removes the stored record and reports whether one existed.
func (s *SettingsService) Delete(ctx context.Context, userID string) (bool, error) {
	return s.repo.Delete(ctx, userID)
}
