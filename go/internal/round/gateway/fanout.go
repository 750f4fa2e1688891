package gateway

import "github.com/mcdev12/wheelround/go/internal/round/events"

// Sink receives broadcast events. Implementations must not block.
type Sink interface {
	Broadcast(event events.Event)
}

// Fanout forwards each event to every sink in order.
type Fanout []Sink

func (f Fanout) Broadcast(event events.Event) {
	for _, s := range f {
		if s != nil {
			s.Broadcast(event)
		}
	}
}
