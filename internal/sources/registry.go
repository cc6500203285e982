package sources

import (
	"fmt"
	"sync"
)

// Registry manages source adapter registration and retrieval
type Registry struct {
	mu       sync.RWMutex
	adapters map[SourceID]SourceAdapter
}

// DefaultRegistry is the global registry instance
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[SourceID]SourceAdapter),
	}
}

// Register registers a source adapter for a given source ID
func (r *Registry) Register(sourceID SourceID, adapter SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[sourceID] = adapter
}

// Get retrieves a source adapter by source ID
func (r *Registry) Get(sourceID SourceID) (SourceAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[sourceID]
	return adapter, ok
}

// GetOrInit retrieves or initializes a source adapter by source ID
func (r *Registry) GetOrInit(sourceID SourceID) (SourceAdapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[sourceID]; ok {
		return adapter, nil
	}

	var adapter SourceAdapter
	var err error

	switch sourceID {
	case SourceZagreb:
		adapter, err = NewZagrebAdapter()
	case SourceLjubljana:
		adapter, err = NewLjubljanaAdapter()
	case SourceVienna:
		adapter, err = NewViennaAdapter()
	default:
		return nil, fmt.Errorf("no adapter implementation for source: %s", sourceID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create adapter for %s: %w", sourceID, err)
	}

	r.adapters[sourceID] = adapter
	return adapter, nil
}

// List returns all registered source IDs
func (r *Registry) List() []SourceID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]SourceID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

// IsRegistered checks if a source is registered
func (r *Registry) IsRegistered(sourceID SourceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[sourceID]
	return ok
}

// GetAdapter is a convenience function to get an adapter from the default registry
func GetAdapter(sourceID SourceID) (SourceAdapter, error) {
	return DefaultRegistry.GetOrInit(sourceID)
}

// InitializeDefaultAdapters initializes all available source adapters
func InitializeDefaultAdapters() error {
	for _, id := range SourceIDs {
		if _, err := DefaultRegistry.GetOrInit(id); err != nil {
			return fmt.Errorf("failed to initialize %s adapter: %w", id, err)
		}
	}
	return nil
}
