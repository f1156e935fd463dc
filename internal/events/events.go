package events

import (
	"time"

	"go.uber.org/zap"
)

// Event is a single audit record emitted after a successful state mutation.
type Event struct {
	Name       string            `json:"name"`
	At         time.Time         `json:"at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// New builds an event stamped with the current UTC time.
func New(name string, attributes map[string]string) Event {
	return Event{Name: name, At: time.Now().UTC(), Attributes: attributes}
}

// Emitter receives audit events. Implementations must not fail the emitting
// operation; the mutation has already committed by the time Emit runs.
type Emitter interface {
	Emit(event Event)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// ZapEmitter writes events to a zap logger at info level.
type ZapEmitter struct {
	Logger *zap.Logger
}

func (e ZapEmitter) Emit(event Event) {
	if e.Logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(event.Attributes)+1)
	fields = append(fields, zap.Time("at", event.At))
	for key, value := range event.Attributes {
		fields = append(fields, zap.String(key, value))
	}
	e.Logger.Info("audit: "+event.Name, fields...)
}

// Multi fans one event out to several emitters.
func Multi(emitters ...Emitter) Emitter {
	return multiEmitter(emitters)
}

type multiEmitter []Emitter

func (m multiEmitter) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
