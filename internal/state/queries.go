package state

import (
	"sort"

	"github.com/yourusername/grid-dock/internal/types"
)

// GetGroup returns a copy of a group's ordered members, nil if it does not exist
func (r *Registry) GetGroup(gid types.GroupID) []types.WindowID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.membersLocked(gid)
}

func (r *Registry) membersLocked(gid types.GroupID) []types.WindowID {
	members, ok := r.groups[gid]
	if !ok {
		return nil
	}
	// Return a copy to prevent modification
	result := make([]types.WindowID, len(members))
	copy(result, members)
	return result
}

// GroupOf returns the group a window belongs to
func (r *Registry) GroupOf(w types.WindowID) (types.GroupID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gid, ok := r.windowGroup[w]
	return gid, ok
}

// Siblings returns the members of w's group, w included, or nil if ungrouped
func (r *Registry) Siblings(w types.WindowID) []types.WindowID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gid, ok := r.windowGroup[w]
	if !ok {
		return nil
	}
	return r.membersLocked(gid)
}

// Groups returns every group identity, sorted
func (r *Registry) Groups() []types.GroupID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.GroupID, 0, len(r.groups))
	for gid := range r.groups {
		ids = append(ids, gid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GroupCount returns the number of groups
func (r *Registry) GroupCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.groups)
}
