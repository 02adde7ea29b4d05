// Package metadata serves per-image instance metadata from memory.
package metadata

import (
	"sync"

	"viewercore/internal/models"
)

// Provider maps image ids to instance metadata.
type Provider struct {
	mu        sync.RWMutex
	instances map[string]models.Instance
}

func NewProvider() *Provider {
	return &Provider{instances: make(map[string]models.Instance)}
}

// Add stores the instance for imageID, replacing any previous entry.
func (p *Provider) Add(imageID string, inst models.Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instances[imageID] = inst
}

// AddSeries stores the same instance for every image id.
func (p *Provider) AddSeries(imageIDs []string, inst models.Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range imageIDs {
		p.instances[id] = inst
	}
}

func (p *Provider) Instance(imageID string) (models.Instance, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inst, ok := p.instances[imageID]
	return inst, ok
}

// Len returns the number of known image ids.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.instances)
}
