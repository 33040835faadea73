package core

import (
	"sync"
	"time"

	"vsmm/internal/domain"
)

// Handler receives events synchronously on the emitting goroutine
type Handler func(domain.Event)

type registration struct {
	id      int
	handler Handler
}

// Events is an explicit observer registry, delivering in registration and emission order
type Events struct {
	mu       sync.Mutex
	nextID   int
	handlers []registration
}

// NewEvents creates an empty registry
func NewEvents() *Events {
	return &Events{}
}

// Register adds a handler and returns a function that removes it
func (e *Events) Register(h Handler) (unregister func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, registration{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, r := range e.handlers {
				if r.id == id {
					e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *Events) emit(ev domain.Event) {
	if e == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	// Handlers may register or unregister while being called
	e.mu.Lock()
	handlers := make([]Handler, len(e.handlers))
	for i, r := range e.handlers {
		handlers[i] = r.handler
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
