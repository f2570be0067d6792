package events

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/grid-dock/internal/types"
)

// Kind is the entity kind an event is addressed to.
type Kind string

const (
	KindWindow Kind = "window"
	KindGroup  Kind = "group"
)

// Name is an event name within its entity kind.
type Name string

const (
	BoundsChanging          Name = "bounds-changing"
	BoundsChanged           Name = "bounds-changed"
	BeginUserBoundsChanging Name = "begin-user-bounds-changing"
	EndUserBoundsChanging   Name = "end-user-bounds-changing"
	GroupChanged            Name = "group-changed"
)

// Key addresses an event: who it is about and what happened.
type Key struct {
	Kind     Kind
	Identity types.Identity
	Name     Name
}

// String returns "kind/uuid/name/event"
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Identity, k.Name)
}

// Reason tells a listener whether its own window initiated the change.
type Reason string

const (
	ReasonSelf  Reason = "self"
	ReasonGroup Reason = "group"
)

// Bounds are visible bounds in event payload form.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// BoundsFromRect converts a rect into payload bounds.
func BoundsFromRect(r types.Rect) Bounds {
	return Bounds{
		Left:   r.X,
		Top:    r.Y,
		Width:  r.Width,
		Height: r.Height,
		Right:  r.Right(),
		Bottom: r.Bottom(),
	}
}

// Rect converts payload bounds back into a rect.
func (b Bounds) Rect() types.Rect {
	return types.Rect{X: b.Left, Y: b.Top, Width: b.Width, Height: b.Height}
}

// Payload is the JSON body delivered to listeners. Bounds fields are only set
// for window events; membership fields only for group-changed.
type Payload struct {
	Type  Kind   `json:"type"`
	Topic Name   `json:"topic"`
	UUID  string `json:"uuid"`
	Name  string `json:"name"`

	*Bounds
	ChangeType  string `json:"changeType,omitempty"`
	Reason      Reason `json:"reason,omitempty"`
	Deferred    bool   `json:"deferred"`
	WindowState string `json:"windowState,omitempty"`

	Action      string           `json:"action,omitempty"`
	SourceGroup types.GroupID    `json:"sourceGroup,omitempty"`
	TargetGroup types.GroupID    `json:"targetGroup,omitempty"`
	Members     []types.Identity `json:"members,omitempty"`
}

// Event is one emitted notification.
type Event struct {
	Key       Key       `json:"-"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBoundsEvent builds a window bounds event. visible is the window's
// visible bounds after the change, delta the change that produced them.
func NewBoundsEvent(name Name, id types.Identity, visible, delta types.Rect, reason Reason, deferred bool) Event {
	b := BoundsFromRect(visible)
	return Event{
		Key: Key{Kind: KindWindow, Identity: id, Name: name},
		Payload: Payload{
			Type:       KindWindow,
			Topic:      name,
			UUID:       id.UUID,
			Name:       id.Name,
			Bounds:     &b,
			ChangeType: types.ClassifyDelta(delta).String(),
			Reason:     reason,
			Deferred:   deferred,
		},
		Timestamp: time.Now(),
	}
}

// NewUserBoundsEvent builds a begin/end-user-bounds-changing event.
func NewUserBoundsEvent(name Name, id types.Identity, visible types.Rect, windowState string) Event {
	b := BoundsFromRect(visible)
	return Event{
		Key: Key{Kind: KindWindow, Identity: id, Name: name},
		Payload: Payload{
			Type:        KindWindow,
			Topic:       name,
			UUID:        id.UUID,
			Name:        id.Name,
			Bounds:      &b,
			WindowState: windowState,
		},
		Timestamp: time.Now(),
	}
}

// Sink receives events. Emit may block only when delivery is remote.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })
