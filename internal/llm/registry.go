package llm

import (
	"fmt"
	"net/http"
	"time"

	"github.com/modchat/modchat/internal/domain"
)

// ModelInfo describes one model in a vendor's catalog.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VendorCard is the catalog entry returned to clients listing models.
type VendorCard struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Models []ModelInfo `json:"models"`
}

// ErrorTemplates holds the user-facing messages for one vendor's failure
// modes. APIError is a format string taking the provider's message.
type ErrorTemplates struct {
	APIKeyMissing  string
	RateLimit      string
	Authentication string
	APIError       string
	Timeout        string
}

// VendorConfig carries the runtime configuration a vendor build needs.
type VendorConfig struct {
	APIKey  string
	Host    string
	Timeout time.Duration
}

// Config maps vendor id to its runtime configuration.
type Config map[string]VendorConfig

// BuildFunc constructs a handle for one vendor.
type BuildFunc func(cfg VendorConfig, model string, settings Settings) (Handle, error)

// Vendor is a static descriptor of one supported provider.
type Vendor struct {
	ID             string
	Name           string
	Models         []ModelInfo
	DefaultModel   string
	RequiresAPIKey bool
	Templates      ErrorTemplates
	Build          BuildFunc
}

// SupportsModel reports whether id is in the vendor's catalog.
func (v Vendor) SupportsModel(id string) bool {
	for _, m := range v.Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Registry is the static catalog of supported vendors and models.
type Registry struct {
	vendors map[string]Vendor
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{vendors: make(map[string]Vendor)}
}

// Register adds a vendor to the catalog. Registration order is preserved
// by Vendors.
func (r *Registry) Register(v Vendor) {
	if _, exists := r.vendors[v.ID]; !exists {
		r.order = append(r.order, v.ID)
	}
	r.vendors[v.ID] = v
}

// Get returns the descriptor for a vendor id.
func (r *Registry) Get(id string) (Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return Vendor{}, domain.Fatal(domain.ErrUnsupportedVendor, http.StatusBadRequest,
			fmt.Sprintf("Unsupported vendor: %s", id))
	}
	return v, nil
}

// Vendors returns the catalog in registration order.
func (r *Registry) Vendors() []VendorCard {
	cards := make([]VendorCard, 0, len(r.order))
	for _, id := range r.order {
		v := r.vendors[id]
		cards = append(cards, VendorCard{ID: v.ID, Name: v.Name, Models: v.Models})
	}
	return cards
}
