package provider

import (
	"os"
	"sort"
	"sync"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// KeyProvider resolves API credentials for provider wrappers.  The lookup
// name is the wrapper name suffixed with "_API_KEY", e.g. "SPRINGER_API_KEY".
type KeyProvider interface {
	APIKey(name string) (string, error)
}

// keyName derives the credential lookup name from a wrapper name.
func keyName(wrapperName string) string {
	return wrapperName + "_API_KEY"
}

// EnvKeyProvider resolves credentials from environment variables.
type EnvKeyProvider struct{}

func (EnvKeyProvider) APIKey(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", apperrors.Newf(apperrors.ErrCodeProviderNoCredentials, "%s is not set", name)
}

// StaticKeyProvider resolves credentials from a fixed map, typically the
// configuration file.
type StaticKeyProvider map[string]string

func (p StaticKeyProvider) APIKey(name string) (string, error) {
	if v, ok := p[name]; ok && v != "" {
		return v, nil
	}
	return "", apperrors.Newf(apperrors.ErrCodeProviderNoCredentials, "%s is not configured", name)
}

// ChainKeyProvider tries each provider in order and returns the first hit.
type ChainKeyProvider []KeyProvider

func (p ChainKeyProvider) APIKey(name string) (string, error) {
	var lastErr error
	for _, kp := range p {
		key, err := kp.APIKey(name)
		if err == nil {
			return key, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = apperrors.Newf(apperrors.ErrCodeProviderNoCredentials, "%s is not available", name)
	}
	return "", lastErr
}

// NewKeyProvider builds the default credential chain: configuration first,
// environment second.
func NewKeyProvider(cfg config.ProvidersConfig) KeyProvider {
	static := StaticKeyProvider{}
	if cfg.Springer.APIKey != "" {
		static[keyName(springerName)] = cfg.Springer.APIKey
	}
	// Both Elsevier collections share the ELSEVIER_API_KEY credential.
	if cfg.Scopus.APIKey != "" {
		static[keyName(elsevierName)] = cfg.Scopus.APIKey
	} else if cfg.ScienceDirect.APIKey != "" {
		static[keyName(elsevierName)] = cfg.ScienceDirect.APIKey
	}
	return ChainKeyProvider{static, EnvKeyProvider{}}
}

// registryEntry is one configured wrapper slot.
type registryEntry struct {
	// position fixes the federation fan-out order so page-window
	// distribution is deterministic.
	position int
	id       string
	build    func() (Wrapper, error)

	once    sync.Once
	wrapper Wrapper
	err     error
}

// Registry holds the configured wrapper set.  Wrappers are built lazily on
// first use and cached; a provider whose credentials are missing is dropped
// from the set with a log entry rather than failing the whole registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	logger  logging.Logger
}

// NewRegistry builds the registry from the deployment configuration.
// Fan-out order is Springer, Scopus, ScienceDirect.
func NewRegistry(cfg config.ProvidersConfig, keys KeyProvider, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if keys == nil {
		keys = NewKeyProvider(cfg)
	}
	r := &Registry{
		entries: map[string]*registryEntry{},
		logger:  logger.Named("registry"),
	}

	if cfg.Springer.Enabled {
		pc := cfg.Springer
		r.register("springer", func() (Wrapper, error) {
			key, err := keys.APIKey(keyName(springerName))
			if err != nil {
				return nil, err
			}
			return NewSpringerWrapper(key, settingsFrom(pc), logger)
		})
	}
	if cfg.Scopus.Enabled {
		pc := cfg.Scopus
		r.register("scopus", func() (Wrapper, error) {
			key, err := keys.APIKey(keyName(elsevierName))
			if err != nil {
				return nil, err
			}
			s := settingsFrom(pc)
			if s.Collection == "" {
				s.Collection = collScopus
			}
			return NewElsevierWrapper(key, s, logger)
		})
	}
	if cfg.ScienceDirect.Enabled {
		pc := cfg.ScienceDirect
		r.register("sciencedirect", func() (Wrapper, error) {
			key, err := keys.APIKey(keyName(elsevierName))
			if err != nil {
				return nil, err
			}
			s := settingsFrom(pc)
			if s.Collection == "" {
				s.Collection = collScienceDirect
			}
			return NewElsevierWrapper(key, s, logger)
		})
	}

	return r
}

func settingsFrom(pc config.ProviderConfig) Settings {
	return Settings{
		Endpoint:     pc.Endpoint,
		Collection:   pc.Collection,
		ResultFormat: pc.ResultFormat,
		Timeout:      pc.Timeout,
		MaxRetries:   pc.MaxRetries,
	}
}

func (r *Registry) register(id string, build func() (Wrapper, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &registryEntry{
		position: len(r.entries),
		id:       id,
		build:    build,
	}
}

// RegisterWrapper adds a prebuilt wrapper under the given id.  Used by tests
// and by deployments extending the built-in provider set.
func (r *Registry) RegisterWrapper(id string, w Wrapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &registryEntry{
		position: len(r.entries),
		id:       id,
	}
	e.once.Do(func() { e.wrapper = w })
	r.entries[id] = e
}

// IDs returns the registered wrapper ids in fan-out order, including ones
// whose construction may later fail.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.entries[ids[i]].position < r.entries[ids[j]].position
	})
	return ids
}

// Get returns the cached wrapper for id, building it on first use.
func (r *Registry) Get(id string) (Wrapper, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "no provider registered as %q", id)
	}
	e.once.Do(func() {
		e.wrapper, e.err = e.build()
	})
	if e.err != nil {
		return nil, e.err
	}
	return e.wrapper, nil
}

// CloneAll returns an independent clone of every usable wrapper, in fan-out
// order.  Providers whose credentials are missing are dropped with a log
// entry; the returned ids parallel the wrappers slice.
func (r *Registry) CloneAll() (ids []string, wrappers []Wrapper) {
	for _, id := range r.IDs() {
		w, err := r.Get(id)
		if err != nil {
			r.logger.Warn("dropping provider",
				logging.String("provider", id),
				logging.Err(err),
			)
			continue
		}
		ids = append(ids, id)
		wrappers = append(wrappers, w.Clone())
	}
	return ids, wrappers
}

// Len returns the number of registered providers, usable or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
