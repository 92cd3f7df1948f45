// Package sync holds the client-side settings state: one resolved record
// per session, reconciled at startup from the server, the local cache and
// built-in defaults, with immediate cache writes and a debounced write-back
// to the server on every change.
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleksvolk/connectboard/internal/client/api"
	"github.com/aleksvolk/connectboard/internal/client/cache"
	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/logging"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// State is the synchronizer lifecycle. It moves forward only: once Ready,
// it never returns to Loading for the rest of the session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

var (
	ErrNotReady           = errors.New("synchronizer is not ready")
	ErrAlreadyInitialized = errors.New("synchronizer already initialized")
)

// Remote is the server surface the synchronizer needs. *api.Client
// satisfies it.
type Remote interface {
	FetchSettings(ctx context.Context) (*settings.Record, error)
	SaveSettings(ctx context.Context, record settings.Record) (*settings.Record, error)
	Verify(ctx context.Context, publicKey, secretKey string) (*api.VerifyResult, error)
}

// Subscriber is notified synchronously after every record change.
type Subscriber func(settings.Record)

// Synchronizer is the single writer of the session's resolved record. All
// category updates are serialized through its mutex before any write-back
// is scheduled, so concurrent update paths can never overwrite each
// other's changes.
type Synchronizer struct {
	remote         Remote
	cache          cache.Store
	logger         logging.Logger
	saveDebounce   time.Duration
	verifyDebounce time.Duration

	mu          sync.Mutex
	state       State
	record      settings.Record
	subscribers []Subscriber
	saveTimer   *time.Timer
	verifyTimer *time.Timer
}

func NewSynchronizer(remote Remote, store cache.Store, saveDebounce, verifyDebounce time.Duration, logger logging.Logger) *Synchronizer {
	return &Synchronizer{
		remote:         remote,
		cache:          store,
		logger:         logger,
		saveDebounce:   saveDebounce,
		verifyDebounce: verifyDebounce,
		record:         settings.Default(),
	}
}

// Subscribe registers fn for synchronous notification on every record
// change, including the initial publish. Must be called before Init.
func (s *Synchronizer) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record returns a copy of the resolved record.
func (s *Synchronizer) Record() settings.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// Init runs the resolution protocol exactly once: the server record wins
// when it has at least one non-empty category; otherwise the local cache;
// otherwise defaults. The result is published to all subscribers before
// Init returns.
func (s *Synchronizer) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.state = StateLoading
	s.mu.Unlock()

	resolved := s.resolve(ctx)

	s.mu.Lock()
	s.record = resolved
	s.state = StateReady
	snapshot := resolved.Clone()
	subscribers := append([]Subscriber(nil), s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return nil
}

func (s *Synchronizer) resolve(ctx context.Context) settings.Record {
	remote, err := s.remote.FetchSettings(ctx)
	if err == nil && !remote.IsEmpty() {
		return settings.Resolve(*remote)
	}
	if err != nil {
		s.logger.Warn(ctx, "fetching remote settings failed, trying cache", "error", err)
	}

	cached, err := s.cache.Load(ctx)
	if err == nil {
		return settings.Resolve(*cached)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "loading cached settings failed, using defaults", "error", err)
	}

	return settings.Default()
}

// Update merges updates into the named category of the resolved record.
// The change is visible to all readers and subscribers before Update
// returns; the cache rewrite happens immediately and the remote save is
// debounced. Changing either auth key resets the verified flag at once and
// schedules a credential check when both keys are present.
func (s *Synchronizer) Update(ctx context.Context, category string, updates map[string]any) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}

	credentialChange := category == settings.CategoryGeneral && touchesCredentials(s.record, updates)

	merged, err := settings.MergeCategory(s.record, category, updates)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if credentialChange {
		merged.General[settings.KeyIsVerified] = false
		merged.General[settings.KeyVerifiedAccountID] = ""
	}

	s.record = merged
	snapshot := merged.Clone()
	subscribers := append([]Subscriber(nil), s.subscribers...)

	s.scheduleSaveLocked()
	if credentialChange {
		general := merged.GeneralSettings()
		if general.AuthPublicKey != "" && general.AuthSecretKey != "" {
			s.scheduleVerifyLocked(general.AuthPublicKey, general.AuthSecretKey)
		} else if s.verifyTimer != nil {
			s.verifyTimer.Stop()
		}
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}

	// best-effort: a broken cache must never block the session
	if err := s.cache.Store(ctx, snapshot); err != nil {
		s.logger.Warn(ctx, "caching settings failed", "error", err)
	}
	return nil
}

func (s *Synchronizer) UpdateGeneral(ctx context.Context, updates map[string]any) error {
	return s.Update(ctx, settings.CategoryGeneral, updates)
}

func (s *Synchronizer) UpdateOnboarding(ctx context.Context, updates map[string]any) error {
	return s.Update(ctx, settings.CategoryOnboarding, updates)
}

func (s *Synchronizer) UpdateDashboard(ctx context.Context, updates map[string]any) error {
	return s.Update(ctx, settings.CategoryDashboard, updates)
}

func (s *Synchronizer) UpdateUI(ctx context.Context, updates map[string]any) error {
	return s.Update(ctx, settings.CategoryUI, updates)
}

// touchesCredentials reports whether updates changes either auth key.
func touchesCredentials(before settings.Record, updates map[string]any) bool {
	general := before.GeneralSettings()
	if v, ok := updates[settings.KeyAuthPublicKey]; ok {
		if key, _ := v.(string); key != general.AuthPublicKey {
			return true
		}
	}
	if v, ok := updates[settings.KeyAuthSecretKey]; ok {
		if key, _ := v.(string); key != general.AuthSecretKey {
			return true
		}
	}
	return false
}

// scheduleSaveLocked restarts the save debounce. The timer is reset, not
// stacked: only the most recent pending write survives.
func (s *Synchronizer) scheduleSaveLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDebounce, s.flushSave)
}

// flushSave pushes the record current at fire time. A failure is logged
// and not retried: the next local update schedules a fresh attempt
// carrying a superset of the lost write.
func (s *Synchronizer) flushSave() {
	s.mu.Lock()
	snapshot := s.record.Clone()
	s.mu.Unlock()

	ctx := context.Background()
	if _, err := s.remote.SaveSettings(ctx, snapshot); err != nil {
		s.logger.Warn(ctx, "saving settings to server failed", "error", err)
	}
}

func (s *Synchronizer) scheduleVerifyLocked(publicKey, secretKey string) {
	if s.verifyTimer != nil {
		s.verifyTimer.Stop()
	}
	s.verifyTimer = time.AfterFunc(s.verifyDebounce, func() {
		s.runVerify(publicKey, secretKey)
	})
}

func (s *Synchronizer) runVerify(publicKey, secretKey string) {
	ctx := context.Background()

	result, err := s.remote.Verify(ctx, publicKey, secretKey)
	if err != nil {
		s.logger.Warn(ctx, "credential verification failed", "error", err)
		return
	}

	s.mu.Lock()
	general := s.record.GeneralSettings()
	// the keys changed again while the check was in flight; a newer check
	// owns the outcome
	if general.AuthPublicKey != publicKey || general.AuthSecretKey != secretKey {
		s.mu.Unlock()
		return
	}

	merged, err := settings.MergeCategory(s.record, settings.CategoryGeneral, map[string]any{
		settings.KeyIsVerified:        result.IsVerified,
		settings.KeyVerifiedAccountID: result.AccountID,
	})
	if err != nil {
		s.mu.Unlock()
		return
	}

	s.record = merged
	snapshot := merged.Clone()
	subscribers := append([]Subscriber(nil), s.subscribers...)
	s.scheduleSaveLocked()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}

	if err := s.cache.Store(ctx, snapshot); err != nil {
		s.logger.Warn(ctx, "caching settings failed", "error", err)
	}
}

// Close stops any pending debounce timers. A pending remote write is
// dropped, matching the accepted data-loss window on abrupt termination.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	if s.verifyTimer != nil {
		s.verifyTimer.Stop()
	}
}
