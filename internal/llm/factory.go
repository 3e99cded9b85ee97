package llm

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/modchat/modchat/internal/domain"
)

// Factory resolves (vendor, model, settings) triples to handles and owns
// the handle cache. The cache is process-wide and unbounded; every distinct
// settings map creates a new entry.
type Factory struct {
	registry *Registry
	cfg      Config

	mu      sync.RWMutex
	handles map[string]Handle
}

// NewFactory creates a factory over the given catalog and vendor config.
func NewFactory(registry *Registry, cfg Config) *Factory {
	return &Factory{
		registry: registry,
		cfg:      cfg,
		handles:  make(map[string]Handle),
	}
}

// Resolve returns the handle for a (vendor, model, settings) triple,
// building and caching one on first use. Two goroutines racing on the same
// key may both build; the loser's handle is discarded. A partially built
// handle is never returned.
func (f *Factory) Resolve(vendor, model string, raw map[string]any) (Handle, error) {
	v, err := f.registry.Get(vendor)
	if err != nil {
		return nil, err
	}
	if !v.SupportsModel(model) {
		return nil, domain.Fatal(domain.ErrUnsupportedModel, http.StatusBadRequest,
			fmt.Sprintf("Unsupported model: %s", model))
	}

	key := CacheKey(vendor, model, raw)

	f.mu.RLock()
	h, ok := f.handles[key]
	f.mu.RUnlock()
	if ok {
		return h, nil
	}

	cfg := f.cfg[vendor]
	if v.RequiresAPIKey && cfg.APIKey == "" {
		return nil, domain.Fatal(domain.ErrAPIKeyMissing, http.StatusUnauthorized,
			v.Templates.APIKeyMissing)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	built, err := v.Build(cfg, model, ParseSettings(raw))
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.handles[key]; ok {
		return h, nil
	}
	f.handles[key] = built
	return built, nil
}

// Configured reports whether a vendor has the credentials it needs.
// Vendors that require no key count as configured.
func (f *Factory) Configured(vendor string) bool {
	v, err := f.registry.Get(vendor)
	if err != nil {
		return false
	}
	if !v.RequiresAPIKey {
		return true
	}
	return f.cfg[vendor].APIKey != ""
}
