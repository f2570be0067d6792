package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/group"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/state"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// errBadParams marks request parameter errors.
var errBadParams = errors.New("invalid params")

// params is the union of every method's parameters.
type params struct {
	WindowID uint32             `json:"windowId"`
	TargetID uint32             `json:"targetId"`
	UUID     string             `json:"uuid"`
	Name     string             `json:"name"`
	Delta    *types.Rect        `json:"delta"`
	Bounds   *types.PartialRect `json:"bounds"`
}

func decode(req *models.Request) (params, error) {
	var p params
	if err := models.FromMap(req.Params, &p); err != nil {
		return p, fmt.Errorf("%w: %v", errBadParams, err)
	}
	return p, nil
}

func (p params) window() (types.WindowID, error) {
	if p.WindowID == 0 {
		return 0, fmt.Errorf("%w: windowId is required", errBadParams)
	}
	return types.WindowID(p.WindowID), nil
}

func (p params) pair() (types.WindowID, types.WindowID, error) {
	id, err := p.window()
	if err != nil {
		return 0, 0, err
	}
	if p.TargetID == 0 {
		return 0, 0, fmt.Errorf("%w: targetId is required", errBadParams)
	}
	return id, types.WindowID(p.TargetID), nil
}

// dispatch runs one request and builds its response envelope.
func (s *Server) dispatch(ctx context.Context, req *models.Request) *models.MessageEnvelope {
	start := time.Now()
	result, err := s.handle(ctx, req)

	ev := logging.Debug()
	if err != nil {
		ev = logging.Warn().Err(err)
	}
	ev.Str("method", req.Method).Dur("took", time.Since(start)).Msg("IPC request")

	if err != nil {
		return models.NewErrorResponse(req.ID, errorCode(err), err.Error())
	}
	data, err := models.ToMap(result)
	if err != nil {
		return models.NewErrorResponse(req.ID, models.CodeInternal, err.Error())
	}
	return models.NewResponse(req.ID, data)
}

func (s *Server) handle(ctx context.Context, req *models.Request) (interface{}, error) {
	p, err := decode(req)
	if err != nil {
		return nil, err
	}

	switch req.Method {
	case models.MethodPing:
		return map[string]interface{}{
			"pong":   true,
			"uptime": time.Since(s.startTime).Round(time.Second).String(),
		}, nil

	case models.MethodTrack:
		id, err := p.window()
		if err != nil {
			return nil, err
		}
		if p.UUID == "" {
			return nil, fmt.Errorf("%w: uuid is required", errBadParams)
		}
		identity := types.Identity{UUID: p.UUID, Name: p.Name}
		if err := s.svc.Track(ctx, id, identity, s.rules(identity)); err != nil {
			return nil, err
		}
		return map[string]interface{}{"tracked": true}, nil

	case models.MethodUntrack:
		id, err := p.window()
		if err != nil {
			return nil, err
		}
		deferred, err := s.svc.Untrack(ctx, id)
		if err != nil {
			return nil, err
		}
		return models.MembershipResult{Deferred: deferred}, nil

	case models.MethodJoin, models.MethodMerge:
		id, target, err := p.pair()
		if err != nil {
			return nil, err
		}
		op := s.svc.JoinGroup
		if req.Method == models.MethodMerge {
			op = s.svc.MergeGroups
		}
		gid, deferred, err := op(ctx, id, target)
		if err != nil {
			return nil, err
		}
		return models.MembershipResult{Group: gid, Deferred: deferred}, nil

	case models.MethodLeave:
		id, err := p.window()
		if err != nil {
			return nil, err
		}
		gid, deferred, err := s.svc.LeaveGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		return models.MembershipResult{Group: gid, Deferred: deferred}, nil

	case models.MethodList:
		return s.svc.Groups(ctx)

	case models.MethodUpdateBounds:
		id, err := p.window()
		if err != nil {
			return nil, err
		}
		if p.Delta == nil {
			return nil, fmt.Errorf("%w: delta is required", errBadParams)
		}
		return moveResult(s.svc.UpdateBounds(ctx, id, *p.Delta))

	case models.MethodSetBounds:
		id, err := p.window()
		if err != nil {
			return nil, err
		}
		if p.Bounds == nil || p.Bounds.IsEmpty() {
			return nil, fmt.Errorf("%w: bounds is required", errBadParams)
		}
		return moveResult(s.svc.SetBounds(ctx, id, *p.Bounds))

	case models.MethodRaiseEvent:
		ev, err := events.DecodeRaiseEvent(req.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadParams, err)
		}
		s.bus.Publish(ev)
		return map[string]interface{}{"delivered": s.bus.Subscribers()}, nil

	default:
		return nil, fmt.Errorf("%w: unknown method %q", errBadParams, req.Method)
	}
}

func moveResult(res *group.MoveResult, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return models.MoveResult{Applied: true, Bounds: res.Bounds, Moved: len(res.Moved)}, nil
}

// errorCode maps coordinator errors onto response codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, group.ErrConstraintViolation), errors.Is(err, group.ErrSessionActive):
		return models.CodeConstraintConflict
	case errors.Is(err, group.ErrNotTracked), errors.Is(err, window.ErrWindowGone):
		return models.CodeNotFound
	case errors.Is(err, errBadParams), errors.Is(err, state.ErrNotGrouped), errors.Is(err, state.ErrSameGroup):
		return models.CodeBadRequest
	default:
		return models.CodeInternal
	}
}
