package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/grid-dock/internal/client"
	"github.com/yourusername/grid-dock/internal/types"
)

// ActionRaiseEvent is the remote action that carries a proxied window's event.
const ActionRaiseEvent = "raise-event"

// Forwarder delivers events for windows owned by another runtime.
type Forwarder interface {
	IsRemoteProxy(id types.Identity) bool
	ForwardToRemote(ctx context.Context, id types.Identity, action string, payload map[string]interface{}) error
}

// Emitter routes each event either to the local sink or, for proxied
// windows, to the owning runtime. Callers never need to know which.
type Emitter struct {
	local  Sink
	remote Forwarder
}

// NewEmitter creates an emitter. remote may be nil.
func NewEmitter(local Sink, remote Forwarder) *Emitter {
	return &Emitter{local: local, remote: remote}
}

// IsRemote reports whether events for id are forwarded and thus awaited.
func (e *Emitter) IsRemote(id types.Identity) bool {
	return e.remote != nil && e.remote.IsRemoteProxy(id)
}

// Emit implements Sink.
func (e *Emitter) Emit(ctx context.Context, ev Event) error {
	if !e.IsRemote(ev.Key.Identity) {
		return e.local.Emit(ctx, ev)
	}
	params, err := RaiseEventParams(ev)
	if err != nil {
		return err
	}
	if err := e.remote.ForwardToRemote(ctx, ev.Key.Identity, ActionRaiseEvent, params); err != nil {
		return fmt.Errorf("forward %s: %w", ev.Key, err)
	}
	return nil
}

// RaiseEventParams encodes ev as {eventName, eventArgs}.
func RaiseEventParams(ev Event) (map[string]interface{}, error) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	var args map[string]interface{}
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return map[string]interface{}{
		"eventName": string(ev.Key.Name),
		"eventArgs": args,
	}, nil
}

// DecodeRaiseEvent is the inverse of RaiseEventParams.
func DecodeRaiseEvent(params map[string]interface{}) (Event, error) {
	name, _ := params["eventName"].(string)
	if name == "" {
		return Event{}, errors.New("missing eventName")
	}
	data, err := json.Marshal(params["eventArgs"])
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal eventArgs: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Event{}, fmt.Errorf("invalid eventArgs: %w", err)
	}
	if p.Type == "" {
		p.Type = KindWindow
	}
	p.Topic = Name(name)
	return Event{
		Key:       Key{Kind: p.Type, Identity: types.Identity{UUID: p.UUID, Name: p.Name}, Name: Name(name)},
		Payload:   p,
		Timestamp: time.Now(),
	}, nil
}

// Remotes forwards events to other griddock daemons over their sockets,
// keyed by application uuid.
type Remotes struct {
	sockets map[string]string
	timeout time.Duration
}

// NewRemotes creates a forwarder from a uuid -> socket path map.
func NewRemotes(sockets map[string]string, timeout time.Duration) *Remotes {
	return &Remotes{sockets: sockets, timeout: timeout}
}

// IsRemoteProxy implements Forwarder.
func (r *Remotes) IsRemoteProxy(id types.Identity) bool {
	_, ok := r.sockets[id.UUID]
	return ok
}

// ForwardToRemote implements Forwarder.
func (r *Remotes) ForwardToRemote(ctx context.Context, id types.Identity, action string, payload map[string]interface{}) error {
	socket, ok := r.sockets[id.UUID]
	if !ok {
		return fmt.Errorf("no remote runtime for %s", id.UUID)
	}

	if action != ActionRaiseEvent {
		return fmt.Errorf("unsupported remote action %q", action)
	}

	c := client.NewClient(socket, r.timeout)
	defer c.Close()

	return c.RaiseEvent(ctx, payload)
}
