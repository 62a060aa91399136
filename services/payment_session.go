package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"checkout-service/models"

	"go.uber.org/zap"
)

// PaymentState is the state of one payment attempt.
type PaymentState string

const (
	PaymentIdle               PaymentState = "IDLE"
	PaymentRequesting         PaymentState = "REQUESTING"
	PaymentAwaitingCompletion PaymentState = "AWAITING_COMPLETION"
	PaymentBlocked            PaymentState = "BLOCKED"
	PaymentCompleted          PaymentState = "COMPLETED"
	PaymentFailed             PaymentState = "FAILED"
	PaymentAbandoned          PaymentState = "ABANDONED"
)

var (
	// ErrWindowBlocked is returned by a WindowOpener when the hosted
	// checkout window could not be opened for the user.
	ErrWindowBlocked = errors.New("payment window blocked")
	// ErrPaymentInProgress is returned by Begin while a previous
	// attempt has not reached a terminal state. No gateway call is
	// made in that case.
	ErrPaymentInProgress = errors.New("payment already in progress")
)

// PaymentGateway exchanges an order summary for a hosted checkout URL.
type PaymentGateway interface {
	PreparePayment(ctx context.Context, req models.PreparePaymentRequest) (string, error)
}

// WindowMessage is a message the hosted checkout window posts back to
// its opener.
type WindowMessage struct {
	Origin string
	Data   string
}

// PaymentWindow is the hosted checkout window for one attempt. The
// window is the only concurrent actor: it communicates exclusively
// through its message channel and its closed signal.
type PaymentWindow interface {
	ID() string
	Messages() <-chan WindowMessage
	Closed() <-chan struct{}
	Close()
}

// WindowOpener opens a PaymentWindow on the gateway redirect URL.
// It returns ErrWindowBlocked when the window cannot be opened.
type WindowOpener interface {
	Open(redirectURL string) (PaymentWindow, error)
}

// WindowOpenerFunc adapts a function to the WindowOpener interface.
type WindowOpenerFunc func(redirectURL string) (PaymentWindow, error)

func (f WindowOpenerFunc) Open(redirectURL string) (PaymentWindow, error) {
	return f(redirectURL)
}

// PaymentSession drives one payment attempt:
//
//	IDLE -> REQUESTING -> AWAITING_COMPLETION -> COMPLETED
//	                  \-> FAILED / BLOCKED        \-> ABANDONED
//
// Terminal outcomes are reported through the onTerminal callback and
// the session resets to IDLE so the attempt can be retried.
type PaymentSession struct {
	mu         sync.Mutex
	state      PaymentState
	gen        int
	window     PaymentWindow
	last       PaymentState
	gateway    PaymentGateway
	opener     WindowOpener
	timeout    time.Duration
	onTerminal func(PaymentState)
	logger     *zap.Logger
}

// NewPaymentSession creates a session in IDLE. timeout bounds
// AWAITING_COMPLETION; zero disables the watchdog. onTerminal is
// invoked once per attempt, outside the session lock.
func NewPaymentSession(gateway PaymentGateway, opener WindowOpener, timeout time.Duration, onTerminal func(PaymentState), logger *zap.Logger) *PaymentSession {
	return &PaymentSession{
		state:      PaymentIdle,
		gateway:    gateway,
		opener:     opener,
		timeout:    timeout,
		onTerminal: onTerminal,
		logger:     logger,
	}
}

// State returns the current state.
func (s *PaymentSession) State() PaymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastOutcome returns the terminal state of the most recent attempt,
// or the empty string if no attempt has finished yet.
func (s *PaymentSession) LastOutcome() PaymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Begin requests a hosted checkout session and opens the payment
// window. It returns the redirect URL on success. A call while a
// previous attempt is still running returns ErrPaymentInProgress
// without touching the gateway.
func (s *PaymentSession) Begin(ctx context.Context, req models.PreparePaymentRequest) (string, error) {
	s.mu.Lock()
	if s.state != PaymentIdle {
		s.mu.Unlock()
		return "", ErrPaymentInProgress
	}
	s.state = PaymentRequesting
	s.mu.Unlock()

	redirectURL, err := s.gateway.PreparePayment(ctx, req)
	if err != nil {
		s.logger.Warn("payment session creation failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		s.reset(PaymentFailed)
		return "", err
	}

	window, err := s.opener.Open(redirectURL)
	if err != nil {
		s.logger.Warn("payment window blocked", zap.String("order_id", req.OrderID))
		s.reset(PaymentBlocked)
		return "", ErrWindowBlocked
	}

	s.mu.Lock()
	s.state = PaymentAwaitingCompletion
	s.window = window
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	go s.watch(gen, window)
	return redirectURL, nil
}

// watch listens for the completion signal while the session is
// AWAITING_COMPLETION. It exits on any terminal transition, so no
// listener outlives its attempt.
func (s *PaymentSession) watch(gen int, window PaymentWindow) {
	var watchdog <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		watchdog = timer.C
	}

	for {
		select {
		case msg, ok := <-window.Messages():
			if !ok {
				s.finish(gen, PaymentAbandoned)
				return
			}
			if msg.Origin != window.ID() || msg.Data != models.PaymentSuccessToken {
				// Unrelated or malformed signal: stay put.
				s.logger.Debug("completion signal ignored",
					zap.String("origin", msg.Origin),
				)
				continue
			}
			s.finish(gen, PaymentCompleted)
			return
		case <-window.Closed():
			s.finish(gen, PaymentAbandoned)
			return
		case <-watchdog:
			s.logger.Warn("payment completion watchdog expired")
			s.finish(gen, PaymentAbandoned)
			return
		}
	}
}

// finish records the outcome for the attempt identified by gen. Stale
// listeners from superseded attempts are dropped on the gen check.
func (s *PaymentSession) finish(gen int, outcome PaymentState) {
	s.mu.Lock()
	if s.gen != gen || s.state != PaymentAwaitingCompletion {
		s.mu.Unlock()
		return
	}
	window := s.window
	s.window = nil
	s.last = outcome
	s.state = PaymentIdle
	cb := s.onTerminal
	s.mu.Unlock()

	if window != nil {
		window.Close()
	}
	if cb != nil {
		cb(outcome)
	}
}

// reset records a synchronous failure (gateway error, blocked window)
// and returns the session to IDLE. The outcome is reported to the
// caller through Begin's error, not through onTerminal.
func (s *PaymentSession) reset(outcome PaymentState) {
	s.mu.Lock()
	s.last = outcome
	s.state = PaymentIdle
	s.mu.Unlock()
}
