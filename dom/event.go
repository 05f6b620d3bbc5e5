package dom

import "golang.org/x/net/html"

// Event is a dispatched DOM event.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Bubbles       bool
	stopped       bool
}

// StopPropagation prevents the event reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles an event.
type Listener func(e *Event)

// AddEventListener registers fn for events of the given type reaching n.
// A nil node listens on the document.
func (d *Document) AddEventListener(n *html.Node, eventType string, fn Listener) {
	if n == nil {
		n = d.root
	}
	byType, ok := d.listeners[n]
	if !ok {
		byType = make(map[string][]Listener)
		d.listeners[n] = byType
	}
	byType[eventType] = append(byType[eventType], fn)
}

// Dispatch fires an event at target. Bubbling events then visit each
// ancestor up to the document.
func (d *Document) Dispatch(target *html.Node, eventType string, bubbles bool) *Event {
	e := &Event{Type: eventType, Target: target, Bubbles: bubbles}
	for cur := target; cur != nil; cur = cur.Parent {
		e.CurrentTarget = cur
		handlers := append([]Listener(nil), d.listeners[cur][eventType]...)
		for _, fn := range handlers {
			fn(e)
		}
		if !bubbles || e.stopped {
			break
		}
	}
	e.CurrentTarget = nil
	return e
}
