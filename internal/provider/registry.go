package provider

import (
	"restage-service/internal/domain"
)

// Registry routes transformation modes to adapters. Modes without an override
// fall through to the default adapter.
type Registry struct {
	fallback  Adapter
	overrides map[domain.TransformationMode]Adapter
}

func NewRegistry(fallback Adapter) *Registry {
	return &Registry{
		fallback:  fallback,
		overrides: make(map[domain.TransformationMode]Adapter),
	}
}

// Route assigns an adapter to a specific transformation mode.
func (r *Registry) Route(mode domain.TransformationMode, a Adapter) {
	if a != nil {
		r.overrides[mode] = a
	}
}

// Select returns the adapter for the mode, or ErrNotConfigured when neither
// an override nor a default adapter is available.
func (r *Registry) Select(mode domain.TransformationMode) (Adapter, error) {
	if a, ok := r.overrides[mode]; ok {
		return a, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, ErrNotConfigured
}
