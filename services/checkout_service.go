package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"checkout-service/kafka"
	"checkout-service/models"
	aws_pkg "checkout-service/pkg/aws"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// OrderAPI is the slice of the order service consumed here.
type OrderAPI interface {
	CreatePendingOrder(ctx context.Context, req models.CreatePendingOrderRequest) (*models.OrderDraft, error)
	GetPendingOrder(ctx context.Context, orderID string) (*models.OrderDraft, error)
}

// CouponAPI is the slice of the coupon service consumed here.
type CouponAPI interface {
	EligibleCoupons(ctx context.Context, productIDs []string) ([]models.Coupon, error)
}

// CartAPI is the slice of the cart service consumed here.
type CartAPI interface {
	Count(ctx context.Context) (int, error)
}

// CheckoutService drives the checkout flow: pending-order creation,
// coupon selection, price computation, and payment orchestration.
type CheckoutService interface {
	Start(ctx context.Context, userID string, req *models.StartCheckoutRequest) (*models.CheckoutView, *ServiceError)
	Get(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *ServiceError)
	LoadCoupons(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *ServiceError)
	SelectCoupon(ctx context.Context, userID, checkoutID string, couponID *string) (*models.CheckoutView, *ServiceError)
	Pay(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *ServiceError)
	CompletePayment(ctx context.Context, checkoutID, token string) *ServiceError
	ReportWindowClosed(ctx context.Context, checkoutID string) *ServiceError
}

// checkout is the live state of one attempt.
type checkout struct {
	mu          sync.Mutex
	id          string
	attemptID   uuid.UUID
	userID      string
	state       models.CheckoutState
	draft       *models.OrderDraft
	eligible    []models.Coupon // nil until the picker loads them
	selected    *models.Coupon
	payment     *PaymentSession
	window      *SignalWindow
	redirectURL string
	message     string
	cartCount   *int
}

type checkoutServiceImpl struct {
	mu       sync.RWMutex
	attempts map[string]*checkout

	orders  OrderAPI
	coupons CouponAPI
	carts   CartAPI
	gateway PaymentGateway
	opener  WindowOpener

	repo  repository.AttemptRepository
	store repository.CheckoutStore

	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicARN string

	paymentTimeout time.Duration
	logger         *zap.Logger
}

// NewCheckoutService creates a CheckoutService. repo, store, producer
// and snsClient may be nil; the corresponding concerns (audit trail,
// snapshots, events) are then skipped. opener may be nil, in which
// case each attempt gets a SignalWindow fed through CompletePayment
// and ReportWindowClosed.
func NewCheckoutService(
	orders OrderAPI,
	coupons CouponAPI,
	carts CartAPI,
	gateway PaymentGateway,
	opener WindowOpener,
	repo repository.AttemptRepository,
	store repository.CheckoutStore,
	producer kafka.ProducerAPI,
	snsClient aws_pkg.SNSPublisher,
	snsTopicARN string,
	paymentTimeout time.Duration,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		attempts:       make(map[string]*checkout),
		orders:         orders,
		coupons:        coupons,
		carts:          carts,
		gateway:        gateway,
		opener:         opener,
		repo:           repo,
		store:          store,
		producer:       producer,
		snsClient:      snsClient,
		snsTopicARN:    snsTopicARN,
		paymentTimeout: paymentTimeout,
		logger:         logger,
	}
}

// Start creates a checkout attempt from cart line items, or adopts an
// existing pending order when req.OrderID is set. Each call allocates
// a fresh attempt; it is never idempotent.
func (s *checkoutServiceImpl) Start(ctx context.Context, userID string, req *models.StartCheckoutRequest) (*models.CheckoutView, *ServiceError) {
	if req == nil || (req.OrderID == "" && len(req.Items) == 0) {
		return nil, &ServiceError{StatusCode: 400, Message: "Checkout requires at least one item"}
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &ServiceError{StatusCode: 400, Message: "Item quantity must be positive"}
		}
	}

	var draft *models.OrderDraft
	var err error
	if req.OrderID != "" {
		draft, err = s.orders.GetPendingOrder(ctx, req.OrderID)
	} else {
		price := models.ComputePrice(req.Items, nil)
		draft, err = s.orders.CreatePendingOrder(ctx, models.CreatePendingOrderRequest{
			TotalPrice: price.Total,
			OrderItems: req.Items,
		})
	}
	if err != nil {
		s.logger.Error("pending order unavailable",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 502, Message: "Failed to create pending order"}
	}

	attemptID := uuid.New()
	c := &checkout{
		id:        attemptID.String(),
		attemptID: attemptID,
		userID:    userID,
		state:     models.CheckoutLoadingOrder,
		draft:     draft,
	}
	opener := s.opener
	if opener == nil {
		opener = WindowOpenerFunc(func(redirectURL string) (PaymentWindow, error) {
			w := NewSignalWindow(c.id)
			c.mu.Lock()
			c.window = w
			c.mu.Unlock()
			return w, nil
		})
	}
	c.payment = NewPaymentSession(s.gateway, opener, s.paymentTimeout, func(outcome PaymentState) {
		s.onPaymentOutcome(c, outcome)
	}, s.logger)
	c.state = models.CheckoutReady

	s.mu.Lock()
	s.attempts[c.id] = c
	s.mu.Unlock()

	price := models.ComputePrice(draft.Items, nil)
	if s.repo != nil {
		attempt := &models.CheckoutAttempt{
			ID:       c.attemptID,
			UserID:   userID,
			OrderID:  draft.OrderID,
			Status:   "ready",
			Subtotal: price.Subtotal,
			Total:    price.Total,
		}
		if err := s.repo.Create(ctx, attempt); err != nil {
			s.logger.Error("failed to record checkout attempt", zap.Error(err))
		}
	}
	if s.store != nil {
		if prev, err := s.store.GetActive(ctx, userID); err == nil && prev != "" {
			s.logger.Info("superseding active checkout",
				zap.String("user_id", userID),
				zap.String("previous_checkout_id", prev),
			)
		}
		if err := s.store.SetActive(ctx, userID, c.id); err != nil {
			s.logger.Warn("failed to register active checkout", zap.Error(err))
		}
	}
	s.snapshot(c)

	s.logger.Info("checkout started",
		zap.String("checkout_id", c.id),
		zap.String("user_id", userID),
		zap.String("order_id", draft.OrderID),
		zap.Int64("subtotal", price.Subtotal),
	)
	return s.viewOf(c), nil
}

// Get returns the current view of an attempt. Finished attempts that
// fell out of memory are served from the snapshot store.
func (s *checkoutServiceImpl) Get(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *ServiceError) {
	if c := s.find(checkoutID); c != nil {
		if c.userID != userID {
			return nil, &ServiceError{StatusCode: 404, Message: "Checkout not found"}
		}
		return s.viewOf(c), nil
	}
	if s.store != nil {
		view, err := s.store.GetView(ctx, checkoutID)
		if err != nil {
			s.logger.Warn("snapshot read failed", zap.Error(err))
		} else if view != nil && view.UserID == userID {
			return view, nil
		}
	}
	// No snapshot either: fall back to the audit row.
	if s.repo != nil {
		if id, err := uuid.Parse(checkoutID); err == nil {
			attempt, err := s.repo.FindByID(ctx, id)
			if err == nil && attempt.UserID == userID {
				return attemptView(attempt), nil
			}
		}
	}
	return nil, &ServiceError{StatusCode: 404, Message: "Checkout not found"}
}

// attemptView rebuilds a coarse view from the persisted audit row.
// Line items and eligible coupons are not persisted there, only the
// state and the price survive.
func attemptView(attempt *models.CheckoutAttempt) *models.CheckoutView {
	view := &models.CheckoutView{
		CheckoutID: attempt.ID.String(),
		UserID:     attempt.UserID,
		OrderID:    attempt.OrderID,
		Price: models.PriceBreakdown{
			Subtotal: attempt.Subtotal,
			Discount: attempt.Discount,
			Total:    attempt.Total,
		},
	}
	switch attempt.Status {
	case "completed":
		view.State = models.CheckoutDone
	case "paying":
		view.State = models.CheckoutPaying
		if attempt.CheckoutURL != nil {
			view.RedirectURL = *attempt.CheckoutURL
		}
	default:
		view.State = models.CheckoutReady
	}
	return view
}

// LoadCoupons fetches the coupons eligible for the draft's products.
// An empty answer is a valid state, not an error.
func (s *checkoutServiceImpl) LoadCoupons(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *ServiceError) {
	c, svcErr := s.findFor(userID, checkoutID)
	if svcErr != nil {
		return nil, svcErr
	}

	c.mu.Lock()
	if c.state != models.CheckoutReady {
		state := c.state
		c.mu.Unlock()
		return nil, &ServiceError{StatusCode: 409, Message: fmt.Sprintf("Coupons cannot be loaded in state %s", state)}
	}
	productIDs := c.draft.ProductIDs()
	c.mu.Unlock()

	coupons, err := s.coupons.EligibleCoupons(ctx, productIDs)
	if err != nil {
		s.logger.Error("coupon lookup failed", zap.String("checkout_id", checkoutID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 502, Message: "Failed to load coupons"}
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}

	c.mu.Lock()
	c.eligible = coupons
	c.mu.Unlock()

	return s.viewOf(c), nil
}

// SelectCoupon applies one coupon from the last-loaded eligible set,
// or clears the selection when couponID is nil. The discount is
// recomputed on every read; nothing is persisted server-side until
// the payment step.
func (s *checkoutServiceImpl) SelectCoupon(ctx context.Context, userID, checkoutID string, couponID *string) (*models.CheckoutView, *ServiceError) {
	c, svcErr := s.findFor(userID, checkoutID)
	if svcErr != nil {
		return nil, svcErr
	}

	c.mu.Lock()
	if c.state != models.CheckoutReady {
		state := c.state
		c.mu.Unlock()
		return nil, &ServiceError{StatusCode: 409, Message: fmt.Sprintf("Coupon cannot be changed in state %s", state)}
	}
	if couponID == nil {
		c.selected = nil
		c.mu.Unlock()
		s.snapshot(c)
		return s.viewOf(c), nil
	}

	var found *models.Coupon
	for i := range c.eligible {
		if c.eligible[i].CouponID == *couponID {
			found = &c.eligible[i]
			break
		}
	}
	if found == nil {
		c.mu.Unlock()
		// Stale UI state: the coupon was not in the last eligible set.
		return nil, &ServiceError{StatusCode: 400, Message: "Coupon is not eligible for this order"}
	}
	coupon := *found
	c.selected = &coupon
	c.mu.Unlock()

	s.snapshot(c)
	return s.viewOf(c), nil
}

// Pay requests a hosted checkout session for the attempt and moves it
// to PAYING. Failures are transient: the draft and the selected coupon
// stay untouched and the attempt returns to READY for a manual retry.
func (s *checkoutServiceImpl) Pay(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *ServiceError) {
	c, svcErr := s.findFor(userID, checkoutID)
	if svcErr != nil {
		return nil, svcErr
	}

	c.mu.Lock()
	switch c.state {
	case models.CheckoutReady:
	case models.CheckoutPaying:
		c.mu.Unlock()
		return nil, &ServiceError{StatusCode: 409, Message: "Payment already in progress"}
	default:
		state := c.state
		c.mu.Unlock()
		return nil, &ServiceError{StatusCode: 409, Message: fmt.Sprintf("Payment cannot start in state %s", state)}
	}
	price := models.ComputePrice(c.draft.Items, c.selected)
	req := models.PreparePaymentRequest{
		OrderID:     c.draft.OrderID,
		ItemName:    paymentItemName(c.draft.Items),
		Quantity:    totalQuantity(c.draft.Items),
		TotalAmount: price.Total,
	}
	var couponID *string
	if c.selected != nil {
		id := c.selected.CouponID
		couponID = &id
	}
	c.state = models.CheckoutPaying
	c.message = ""
	session := c.payment
	attemptID := c.attemptID
	c.mu.Unlock()

	// The selection is persisted with the order before any gateway
	// call, so the charged amount is always on record. A failed write
	// here is an audit-store problem, not a gateway one; no session
	// was created so the attempt goes straight back to READY.
	if s.repo != nil {
		if err := s.repo.RecordPricing(ctx, attemptID, couponID, price); err != nil {
			s.logger.Error("failed to record pricing", zap.String("checkout_id", c.id), zap.Error(err))
			c.mu.Lock()
			if c.state == models.CheckoutPaying {
				c.state = models.CheckoutReady
			}
			c.message = "Failed to record the order pricing"
			svcErr := &ServiceError{StatusCode: 502, Message: c.message}
			c.mu.Unlock()
			s.snapshot(c)
			return nil, svcErr
		}
	}

	redirectURL, err := session.Begin(ctx, req)
	if err != nil {
		return nil, s.failPayment(c, err)
	}

	c.mu.Lock()
	c.redirectURL = redirectURL
	c.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.UpdateStatus(ctx, c.attemptID, "paying", &redirectURL); err != nil {
			s.logger.Warn("failed to update checkout attempt", zap.Error(err))
		}
	}
	s.snapshot(c)

	s.logger.Info("payment session opened",
		zap.String("checkout_id", c.id),
		zap.String("order_id", req.OrderID),
		zap.Int64("total_amount", req.TotalAmount),
	)
	return s.viewOf(c), nil
}

// failPayment maps a Begin error onto the transient-retry contract.
func (s *checkoutServiceImpl) failPayment(c *checkout, err error) *ServiceError {
	if errors.Is(err, ErrPaymentInProgress) {
		// Another Begin raced us; leave the running attempt alone.
		return &ServiceError{StatusCode: 409, Message: "Payment already in progress"}
	}

	c.mu.Lock()
	if c.state == models.CheckoutPaying {
		c.state = models.CheckoutReady
	}
	var svcErr *ServiceError
	if errors.Is(err, ErrWindowBlocked) {
		c.message = "Payment window was blocked. Enable popups and try again."
		svcErr = &ServiceError{StatusCode: 409, Message: c.message}
	} else {
		c.message = "Failed to prepare payment session"
		svcErr = &ServiceError{StatusCode: 502, Message: c.message}
	}
	c.mu.Unlock()

	s.snapshot(c)
	return svcErr
}

// CompletePayment delivers the one-shot completion signal posted by
// the payment success page into the attempt's window. Signals that do
// not match the protocol are ignored by the session listener.
func (s *checkoutServiceImpl) CompletePayment(ctx context.Context, checkoutID, token string) *ServiceError {
	c := s.find(checkoutID)
	if c == nil {
		return &ServiceError{StatusCode: 404, Message: "Checkout not found"}
	}

	c.mu.Lock()
	window := c.window
	paying := c.state == models.CheckoutPaying
	c.mu.Unlock()

	if !paying || window == nil {
		return &ServiceError{StatusCode: 409, Message: "No payment awaiting completion"}
	}
	window.Deliver(c.id, token)
	return nil
}

// ReportWindowClosed records that the payment window was closed by the
// user without a completion signal.
func (s *checkoutServiceImpl) ReportWindowClosed(ctx context.Context, checkoutID string) *ServiceError {
	c := s.find(checkoutID)
	if c == nil {
		return &ServiceError{StatusCode: 404, Message: "Checkout not found"}
	}

	c.mu.Lock()
	window := c.window
	c.mu.Unlock()

	if window == nil {
		return &ServiceError{StatusCode: 409, Message: "No payment awaiting completion"}
	}
	window.Close()
	return nil
}

// onPaymentOutcome consumes terminal payment transitions. COMPLETED
// commits the attempt to DONE; ABANDONED and FAILED return it to
// READY with a transient message.
func (s *checkoutServiceImpl) onPaymentOutcome(c *checkout, outcome PaymentState) {
	c.mu.Lock()
	if c.state != models.CheckoutPaying {
		c.mu.Unlock()
		return
	}
	c.redirectURL = ""
	c.window = nil
	switch outcome {
	case PaymentCompleted:
		c.state = models.CheckoutDone
		c.message = ""
		c.mu.Unlock()
		s.finalize(c)
		return
	case PaymentAbandoned:
		c.state = models.CheckoutReady
		c.message = "Payment window closed before completion"
	default:
		c.state = models.CheckoutReady
		c.message = "Payment failed"
	}
	c.mu.Unlock()

	s.snapshot(c)
	s.logger.Info("payment attempt finished without completion",
		zap.String("checkout_id", c.id),
		zap.String("outcome", string(outcome)),
	)
}

// finalize runs the post-completion work: audit update, completed
// event, best-effort cart refresh, snapshot. None of it can undo the
// DONE transition already committed.
func (s *checkoutServiceImpl) finalize(c *checkout) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.mu.Lock()
	price := models.ComputePrice(c.draft.Items, c.selected)
	evt := models.CheckoutCompletedEvent{
		EventType:  "checkout_completed",
		CheckoutID: c.id,
		UserID:     c.userID,
		OrderID:    c.draft.OrderID,
		Total:      price.Total,
		Timestamp:  time.Now().UTC(),
	}
	if c.selected != nil {
		evt.CouponID = c.selected.CouponID
	}
	attemptID := c.attemptID
	userID := c.userID
	c.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.MarkCompleted(ctx, attemptID, evt.Total); err != nil {
			s.logger.Error("failed to mark checkout attempt completed", zap.Error(err))
		}
	}

	if s.producer != nil {
		if err := s.producer.SendCheckoutCompleted(ctx, evt); err != nil {
			s.logger.Warn("kafka publish failed", zap.Error(err))
		}
	}
	if s.snsClient != nil && s.snsTopicARN != "" {
		if data, err := json.Marshal(evt); err == nil {
			if err := s.snsClient.Publish(ctx, s.snsTopicARN, data); err != nil {
				s.logger.Warn("sns publish failed", zap.Error(err))
			}
		}
	}

	// Cart badge refresh is fire-and-forget: a failure is logged and
	// never affects the committed DONE state.
	if s.carts != nil {
		if count, err := s.carts.Count(ctx); err != nil {
			s.logger.Warn("cart count refresh failed", zap.Error(err))
		} else {
			c.mu.Lock()
			c.cartCount = &count
			c.mu.Unlock()
		}
	}

	if s.store != nil {
		if err := s.store.ClearActive(ctx, userID); err != nil {
			s.logger.Warn("failed to clear active checkout", zap.Error(err))
		}
	}
	s.snapshot(c)

	// DONE is terminal. Once the snapshot serves reads the live entry
	// only leaks memory; without a store it stays resident.
	if s.store != nil {
		s.mu.Lock()
		delete(s.attempts, c.id)
		s.mu.Unlock()
	}

	s.logger.Info("checkout completed",
		zap.String("checkout_id", evt.CheckoutID),
		zap.String("order_id", evt.OrderID),
		zap.Int64("total", evt.Total),
	)
}

func (s *checkoutServiceImpl) find(checkoutID string) *checkout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts[checkoutID]
}

func (s *checkoutServiceImpl) findFor(userID, checkoutID string) (*checkout, *ServiceError) {
	c := s.find(checkoutID)
	if c == nil || c.userID != userID {
		return nil, &ServiceError{StatusCode: 404, Message: "Checkout not found"}
	}
	return c, nil
}

// viewOf builds the read model for an attempt.
func (s *checkoutServiceImpl) viewOf(c *checkout) *models.CheckoutView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := &models.CheckoutView{
		CheckoutID:  c.id,
		UserID:      c.userID,
		State:       c.state,
		OrderID:     c.draft.OrderID,
		Items:       c.draft.Items,
		Coupons:     c.eligible,
		Price:       models.ComputePrice(c.draft.Items, c.selected),
		RedirectURL: c.redirectURL,
		Message:     c.message,
		CartCount:   c.cartCount,
	}
	if c.selected != nil {
		coupon := *c.selected
		view.Coupon = &coupon
	}
	return view
}

// snapshot persists the current view, best-effort.
func (s *checkoutServiceImpl) snapshot(c *checkout) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.SaveView(ctx, s.viewOf(c)); err != nil {
		s.logger.Warn("snapshot write failed", zap.String("checkout_id", c.id), zap.Error(err))
	}
}

// paymentItemName summarizes the order lines for the gateway.
func paymentItemName(items []models.OrderLineItem) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return items[0].ProductName
	}
	return fmt.Sprintf("%s and %d more", items[0].ProductName, len(items)-1)
}

func totalQuantity(items []models.OrderLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
