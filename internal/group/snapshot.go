package group

import (
	"sort"

	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// Snapshot describes every group and ungrouped tracked window. Windows whose
// bounds cannot be read are left out.
func (c *Coordinator) Snapshot() *models.GroupsResult {
	res := &models.GroupsResult{
		Groups:    []models.GroupView{},
		Ungrouped: []models.WindowView{},
	}

	for _, gid := range c.registry.Groups() {
		view := models.GroupView{ID: gid, BoundsChanging: c.tracker.IsChanging(gid)}
		for _, id := range c.registry.GetGroup(gid) {
			if v, ok := c.view(id); ok {
				view.Members = append(view.Members, v)
			}
		}
		res.Groups = append(res.Groups, view)
	}

	ids := make([]types.WindowID, 0, len(c.windows))
	for id := range c.windows {
		if _, grouped := c.registry.GroupOf(id); !grouped {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if v, ok := c.view(id); ok {
			res.Ungrouped = append(res.Ungrouped, v)
		}
	}
	return res
}

func (c *Coordinator) view(id types.WindowID) (models.WindowView, bool) {
	w, ok := c.windows[id]
	if !ok {
		return models.WindowView{}, false
	}
	m, err := window.MoveFromWindow(c.native, w)
	if err != nil {
		return models.WindowView{}, false
	}
	return models.WindowView{
		ID:       id,
		Identity: w.Identity,
		Bounds:   m.Visible(),
		Native:   m.Rect,
	}, true
}
