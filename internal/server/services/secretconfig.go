package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/secretconfig"
)

// DefaultWriteTimeout bounds a single persistence write of SecretConfigService.
const DefaultWriteTimeout = 5 * time.Second

// Sealer is implemented by cryptox.Engine.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// EntryInfo is what ListAll exposes about an entry. It never carries a value.
type EntryInfo struct {
	Key         string
	Description string
	Sealed      bool
	UpdatedAt   time.Time
}

// cacheEntry holds a decrypted value, or the error that kept it from being
// decrypted during Load.
type cacheEntry struct {
	value string
	err   error
}

// SecretConfigService is a cache-aside store for sensitive settings.
//
// The repository is the source of truth. The cache holds plaintext and is
// only changed after the matching repository write succeeded. Get never
// touches the repository. Set and Delete are serialized per key; Load
// excludes both for its whole run.
type SecretConfigService struct {
	repo   secretconfig.Repository
	sealer Sealer
	base   BaseSource
	logger logging.Logger

	writeTimeout time.Duration

	loadMu sync.RWMutex
	keys   *keyLock

	mu     sync.RWMutex
	cache  map[string]cacheEntry
	loaded bool
}

// SecretConfigOption customizes NewSecretConfigService.
type SecretConfigOption func(*SecretConfigService)

// WithWriteTimeout bounds each repository write. Writes are detached from
// the caller's cancellation so an abandoned Set still lands in both the
// repository and the cache.
func WithWriteTimeout(d time.Duration) SecretConfigOption {
	return func(s *SecretConfigService) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewSecretConfigService builds an empty, not yet loaded store. base may be
// nil, in which case Get has no fallback.
func NewSecretConfigService(repo secretconfig.Repository, sealer Sealer, base BaseSource, logger logging.Logger, opts ...SecretConfigOption) *SecretConfigService {
	if base == nil {
		base = MapSource(nil)
	}
	s := &SecretConfigService{
		repo:         repo,
		sealer:       sealer,
		base:         base,
		logger:       logger.With("component", "secret_config"),
		writeTimeout: DefaultWriteTimeout,
		keys:         newKeyLock(),
		cache:        make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the cache with every persisted entry. Entries that fail to
// decrypt are logged and remembered as corrupt; they do not stop the load.
// A repository failure leaves the cache as it was.
func (s *SecretConfigService) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	entries, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]cacheEntry, len(entries))
	corrupt := 0
	for _, e := range entries {
		value, err := s.open(e)
		if err != nil {
			corrupt++
			s.logger.Warn(ctx, "skipping undecryptable secret config entry", "key", e.Key, "error", err)
			next[e.Key] = cacheEntry{err: err}
			continue
		}
		next[e.Key] = cacheEntry{value: value}
	}

	s.mu.Lock()
	s.cache = next
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info(ctx, "secret config loaded", "entries", len(entries), "corrupt", corrupt)
	return nil
}

// Get returns the cached value for key, falling back to the base source.
// A key that failed to decrypt during Load returns that error rather than
// reporting the key as absent.
func (s *SecretConfigService) Get(key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.cache[key]
	s.mu.RUnlock()

	if ok {
		if e.err != nil {
			return "", false, e.err
		}
		return e.value, true, nil
	}

	v, ok := s.base.Lookup(key)
	return v, ok, nil
}

// GetStrict reads key straight from the repository and decrypts it. It
// falls back to the base source only when the key is not persisted, and
// returns common.ErrorNotFound when neither has it.
func (s *SecretConfigService) GetStrict(ctx context.Context, key string) (string, error) {
	e, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if v, ok := s.base.Lookup(key); ok {
				return v, nil
			}
		}
		return "", err
	}
	return s.open(e)
}

// Set stores value under key, sealing it first when sealed is true, and
// caches the plaintext once the write succeeded.
func (s *SecretConfigService) Set(ctx context.Context, key, value string, sealed bool, description string) error {
	if key == "" {
		return common.ErrorInvalidArgument
	}

	s.loadMu.RLock()
	defer s.loadMu.RUnlock()
	unlock := s.keys.Lock(key)
	defer unlock()

	stored := value
	if sealed {
		blob, err := s.sealer.Encrypt(value)
		if err != nil {
			return fmt.Errorf("seal %q: %w", key, err)
		}
		stored = blob
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	entry := &models.SecretConfigEntry{Key: key, Value: stored, Sealed: sealed, Description: description}
	if err := s.repo.Upsert(wctx, entry); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{value: value}
	s.mu.Unlock()

	s.logger.Info(ctx, "secret config set", "key", key, "sealed", sealed)
	return nil
}

// Delete removes key from the repository and then from the cache. Deleting
// an absent key is not an error.
func (s *SecretConfigService) Delete(ctx context.Context, key string) error {
	s.loadMu.RLock()
	defer s.loadMu.RUnlock()
	unlock := s.keys.Lock(key)
	defer unlock()

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	if err := s.repo.Delete(wctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	s.logger.Info(ctx, "secret config deleted", "key", key)
	return nil
}

// ListAll returns entry metadata only.
func (s *SecretConfigService) ListAll(ctx context.Context) ([]EntryInfo, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryInfo{
			Key:         e.Key,
			Description: e.Description,
			Sealed:      e.Sealed,
			UpdatedAt:   e.UpdatedAt,
		})
	}
	return out, nil
}

// Loaded reports whether Load has completed since construction or Reset.
func (s *SecretConfigService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Reset drops the cache and marks the store as not loaded.
func (s *SecretConfigService) Reset() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.loaded = false
	s.mu.Unlock()
}

func (s *SecretConfigService) open(e *models.SecretConfigEntry) (string, error) {
	if !e.Sealed {
		return e.Value, nil
	}
	v, err := s.sealer.Decrypt(e.Value)
	if err != nil {
		return "", fmt.Errorf("secret config %q: %w", e.Key, err)
	}
	return v, nil
}

func (s *SecretConfigService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}
