package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/yourusername/grid-dock/internal/types"
)

var (
	// ErrNotGrouped is returned when a window that belongs to no group is asked to leave one.
	ErrNotGrouped = errors.New("window is not in a group")
	// ErrSameGroup is returned when both windows of a join or merge already share a group.
	ErrSameGroup = errors.New("windows are already in the same group")
)

// Action names a membership mutation.
type Action string

const (
	ActionJoin    Action = "join"
	ActionMerge   Action = "merge"
	ActionLeave   Action = "leave"
	ActionDisband Action = "disband"
)

// Change describes one completed membership mutation.
type Change struct {
	Action Action
	Window types.WindowID // the window that joined, merged or left
	Source types.GroupID  // group the window came from, if any
	Target types.GroupID  // group the window ended up in, if any
	// Members of the affected group after the change. For a disband this is
	// the sole survivor, which is no longer grouped.
	Members []types.WindowID
	// Ungrouped lists windows that belong to no group after the change.
	Ungrouped []types.WindowID
}

// Registry owns group membership. A window belongs to at most one group and
// a group always has at least two members.
type Registry struct {
	groups      map[types.GroupID][]types.WindowID // ordered members
	windowGroup map[types.WindowID]types.GroupID
	newID       func() types.GroupID

	mu sync.RWMutex
}

// NewRegistry creates an empty registry with uuid group identities
func NewRegistry() *Registry {
	return &Registry{
		groups:      make(map[types.GroupID][]types.WindowID),
		windowGroup: make(map[types.WindowID]types.GroupID),
		newID: func() types.GroupID {
			return types.GroupID(uuid.New().String())
		},
	}
}

// JoinGroup puts window into target's group. When neither is grouped a new
// group is created with target first; when both are grouped the groups are
// unioned into target's.
func (r *Registry) JoinGroup(window, target types.WindowID) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.union(ActionJoin, window, target)
}

// MergeGroups moves every member of window's group into target's group.
// With fewer than two groups involved it behaves like JoinGroup.
func (r *Registry) MergeGroups(window, target types.WindowID) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.union(ActionMerge, window, target)
}

func (r *Registry) union(action Action, window, target types.WindowID) (Change, error) {
	if window == target {
		return Change{}, fmt.Errorf("window %d cannot join itself: %w", window, ErrSameGroup)
	}

	src, srcOK := r.windowGroup[window]
	dst, dstOK := r.windowGroup[target]

	switch {
	case srcOK && dstOK && src == dst:
		return Change{}, ErrSameGroup

	case !srcOK && !dstOK:
		dst = r.newID()
		r.groups[dst] = []types.WindowID{target, window}
		r.windowGroup[target] = dst
		r.windowGroup[window] = dst

	case !srcOK:
		r.add(dst, window)

	case !dstOK:
		// Only the joining window has a group; target joins it.
		r.add(src, target)
		dst, src = src, ""

	default:
		for _, w := range r.groups[src] {
			r.add(dst, w)
		}
		delete(r.groups, src)
	}

	return Change{
		Action:  action,
		Window:  window,
		Source:  src,
		Target:  dst,
		Members: r.membersLocked(dst),
	}, nil
}

func (r *Registry) add(gid types.GroupID, w types.WindowID) {
	r.groups[gid] = append(r.groups[gid], w)
	r.windowGroup[w] = gid
}

// LeaveGroup removes window from its group. A group left with a single
// member is disbanded.
func (r *Registry) LeaveGroup(window types.WindowID) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gid, ok := r.windowGroup[window]
	if !ok {
		return Change{}, ErrNotGrouped
	}

	members := r.groups[gid]
	remaining := make([]types.WindowID, 0, len(members)-1)
	for _, w := range members {
		if w != window {
			remaining = append(remaining, w)
		}
	}
	delete(r.windowGroup, window)

	change := Change{
		Action:    ActionLeave,
		Window:    window,
		Source:    gid,
		Members:   remaining,
		Ungrouped: []types.WindowID{window},
	}

	if len(remaining) <= 1 {
		delete(r.groups, gid)
		for _, w := range remaining {
			delete(r.windowGroup, w)
		}
		change.Action = ActionDisband
		change.Ungrouped = append(change.Ungrouped, remaining...)
		return change, nil
	}

	r.groups[gid] = remaining
	return change, nil
}
