// Package instances tracks which integration instances have opted into
// automatic import and which platform company they belong to. State is
// in-memory only; a restart recovers it from the next round of instance
// announcements, so no durability is needed.
package instances

import (
	"strings"
	"sync"
)

// EnabledInstance is an instance that both opted into auto import and has
// a known company id.
type EnabledInstance struct {
	InstanceID string
	CompanyID  int64
}

// Registry is the process-wide instance registry. The auto-import flag
// and the company id are set independently and may arrive in any order.
type Registry struct {
	mu         sync.RWMutex
	autoImport map[string]bool
	companyIDs map[string]int64
	order      []string
}

func NewRegistry() *Registry {
	return &Registry{
		autoImport: make(map[string]bool),
		companyIDs: make(map[string]int64),
	}
}

func (r *Registry) SetAutoImport(instanceID string, enabled bool) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track(instanceID)
	r.autoImport[instanceID] = enabled
}

func (r *Registry) AutoImport(instanceID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoImport[strings.TrimSpace(instanceID)]
}

func (r *Registry) SetCompanyID(instanceID string, companyID int64) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" || companyID <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track(instanceID)
	r.companyIDs[instanceID] = companyID
}

// CompanyID returns the company id for an instance, or 0 if unknown.
func (r *Registry) CompanyID(instanceID string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.companyIDs[strings.TrimSpace(instanceID)]
}

// EnabledInstances returns the instances with auto import enabled AND a
// known company id, in first-seen order. An instance enabled without a
// company id cannot know what to sync against and is excluded.
func (r *Registry) EnabledInstances() []EnabledInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EnabledInstance, 0, len(r.order))
	for _, id := range r.order {
		if !r.autoImport[id] {
			continue
		}
		companyID, ok := r.companyIDs[id]
		if !ok || companyID <= 0 {
			continue
		}
		out = append(out, EnabledInstance{InstanceID: id, CompanyID: companyID})
	}
	return out
}

// All returns every known instance id in first-seen order.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// track must be called with r.mu held.
func (r *Registry) track(instanceID string) {
	if _, ok := r.autoImport[instanceID]; ok {
		return
	}
	if _, ok := r.companyIDs[instanceID]; ok {
		return
	}
	r.order = append(r.order, instanceID)
}
