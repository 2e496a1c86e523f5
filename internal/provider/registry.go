// Package provider implements the metadata provider capability for the
// external lookup services (TMDB, TVMaze) plus the registry the resolver
// draws providers from.
package provider

import (
	"github.com/mydehq/mediasort/internal/types"
)

// providers is the global registry of available providers
var providers []types.Provider

// Register adds a provider to the registry.
func Register(p types.Provider) {
	providers = append(providers, p)
}

// Reset clears the registry. Tests use it to install fakes.
func Reset() {
	providers = nil
}

// Get finds a provider by its name.
func Get(name string) (types.Provider, error) {
	for _, p := range providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, types.ErrProviderNotFound{Name: name}
}

// ForType returns all registered providers serving the given media type,
// in registration order.
func ForType(mediaType types.MediaType) []types.Provider {
	var out []types.Provider
	for _, p := range providers {
		if p.Serves(mediaType) {
			out = append(out, p)
		}
	}
	return out
}

// All returns every registered provider in registration order.
func All() []types.Provider {
	out := make([]types.Provider, len(providers))
	copy(out, providers)
	return out
}

// List returns all registered provider names.
func List() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}
