package services

import "sync"

// SignalWindow is a PaymentWindow fed by explicit signals. In
// production the hosted checkout's success page reports back over
// HTTP and the controller delivers the signal here; the window-closed
// report travels the same way.
type SignalWindow struct {
	id     string
	msgs   chan WindowMessage
	closed chan struct{}
	once   sync.Once
}

func NewSignalWindow(id string) *SignalWindow {
	return &SignalWindow{
		id:     id,
		msgs:   make(chan WindowMessage, 4),
		closed: make(chan struct{}),
	}
}

func (w *SignalWindow) ID() string                     { return w.id }
func (w *SignalWindow) Messages() <-chan WindowMessage { return w.msgs }
func (w *SignalWindow) Closed() <-chan struct{}        { return w.closed }

// Close marks the window closed. Safe to call more than once.
func (w *SignalWindow) Close() {
	w.once.Do(func() { close(w.closed) })
}

// Deliver posts a message to the opener without blocking. Messages
// beyond the buffer are dropped; the completion protocol is one-shot.
func (w *SignalWindow) Deliver(origin, data string) {
	select {
	case w.msgs <- WindowMessage{Origin: origin, Data: data}:
	default:
	}
}
