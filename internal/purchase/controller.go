package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-frontend/internal/aws"
	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/cart"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

// Controller drives IDLE -> SUBMITTING -> CONFIRMING -> (clear + navigate) -> IDLE
// for one session's cart.
//
// The cart is cleared only when the cashier acknowledges the confirmation,
// never directly on the purchase response.
type Controller struct {
	mu      sync.Mutex
	cart    *cart.Cart
	backend Submitter
	empCode string

	logger  *zap.Logger
	journal Journal
	events  Sender
	metrics Metrics
	nowFunc func() time.Time

	state        State
	result       *validation.PurchaseResult
	pendingClear bool
	lastTxID     int64
	notice       string
}

// Option customises a Controller.
type Option func(*Controller)

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithJournal records submissions and outcomes in j.
func WithJournal(j Journal) Option { return func(c *Controller) { c.journal = j } }

// WithEvents publishes a CompletedEvent after each successful purchase.
func WithEvents(s Sender) Option { return func(c *Controller) { c.events = s } }

func WithMetrics(m Metrics) Option { return func(c *Controller) { c.metrics = m } }

// NewController returns an idle controller over c.
func NewController(c *cart.Cart, submitter Submitter, empCode string, opts ...Option) *Controller {
	ctl := &Controller{
		cart:    c,
		backend: submitter,
		empCode: empCode,
		logger:  zap.NewNop(),
		nowFunc: time.Now,
		state:   StateIdle,
	}
	for _, o := range opts {
		o(ctl)
	}
	return ctl
}

// Submit snapshots the cart and sends the purchase. On success the controller
// moves to CONFIRMING with a pending clear; on failure it returns to IDLE,
// keeps the cart untouched and stores a notice carrying the raw payload.
// A Submit outside IDLE is rejected with ErrSubmissionInFlight.
func (c *Controller) Submit(ctx context.Context) (*Confirmation, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("purchase rejected", zap.String("state", string(state)))
		return nil, ErrSubmissionInFlight
	}
	items := c.cart.PurchaseItems()
	if len(items) == 0 {
		c.mu.Unlock()
		return nil, ErrEmptyCart
	}
	c.state = StateSubmitting
	c.notice = ""
	c.mu.Unlock()

	req := validation.PurchaseRequest{
		EmpCode: c.empCode,
		Items:   make([]validation.PurchaseItem, 0, len(items)),
	}
	for _, it := range items {
		req.Items = append(req.Items, validation.PurchaseItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	journalID := c.beginJournal(ctx, req)
	c.incr(ctx, aws.MetricPurchaseSubmitted)

	res, err := c.backend.CreatePurchase(ctx, req)
	if err != nil {
		msg := FailureMessage(err)
		c.mu.Lock()
		c.state = StateIdle
		c.notice = msg
		c.mu.Unlock()

		c.logger.Warn("purchase failed", zap.Error(err), zap.String("journal_id", journalID))
		c.failJournal(ctx, journalID, msg)
		c.incr(ctx, aws.MetricPurchaseFailed)
		return nil, err
	}

	c.mu.Lock()
	c.state = StateConfirming
	c.result = res
	c.pendingClear = true
	c.lastTxID = res.TransactionID
	c.mu.Unlock()

	c.logger.Info("purchase completed",
		zap.Int64("transaction_id", res.TransactionID),
		zap.String("total_amount", res.TotalAmount.String()),
		zap.String("journal_id", journalID))
	if !c.completeJournal(ctx, journalID, *res) {
		// the receipt worker only settles COMPLETED entries
		journalID = ""
	}
	c.publish(ctx, journalID, *res)
	c.incr(ctx, aws.MetricPurchaseSucceeded)

	return confirmationOf(res), nil
}

// Acknowledge is the cashier dismissing the confirmation. It clears the cart
// when a clear is pending and returns the history navigation for the stored
// transaction id, if any. The controller is IDLE afterwards.
func (c *Controller) Acknowledge() (*Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConfirming {
		return nil, ErrNotConfirming
	}
	if c.pendingClear {
		c.cart.Clear()
		c.pendingClear = false
	}
	var nav *Navigation
	if c.lastTxID != 0 {
		nav = &Navigation{TransactionID: c.lastTxID, Path: HistoryPath(c.lastTxID)}
		c.lastTxID = 0
	}
	c.result = nil
	c.state = StateIdle
	return nav, nil
}

// DismissNotice clears a failure notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.notice = ""
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{State: c.state, Notice: c.notice, PendingClear: c.pendingClear}
	if c.state == StateConfirming && c.result != nil {
		v.Confirmation = confirmationOf(c.result)
	}
	return v
}

// FailureMessage is the cashier-facing text for a failed purchase. Backend
// rejections carry their raw payload.
func FailureMessage(err error) string {
	var pe *backend.PurchaseError
	if errors.As(err, &pe) {
		return "purchase error:\n" + pe.Payload
	}
	return "purchase error: " + err.Error()
}

func confirmationOf(res *validation.PurchaseResult) *Confirmation {
	return &Confirmation{
		TransactionID: res.TransactionID,
		TotalAmountEx: res.TotalAmountEx,
		TotalAmount:   res.TotalAmount,
	}
}

func (c *Controller) beginJournal(ctx context.Context, req validation.PurchaseRequest) string {
	if c.journal == nil {
		return ""
	}
	id, err := c.journal.Begin(ctx, req)
	if err != nil {
		c.logger.Error("journal begin failed", zap.Error(err))
		return ""
	}
	return id
}

// completeJournal reports whether the entry reached COMPLETED.
func (c *Controller) completeJournal(ctx context.Context, id string, res validation.PurchaseResult) bool {
	if c.journal == nil || id == "" {
		return false
	}
	if err := c.journal.Complete(ctx, id, res); err != nil {
		c.logger.Error("journal complete failed", zap.String("journal_id", id), zap.Error(err))
		return false
	}
	return true
}

func (c *Controller) failJournal(ctx context.Context, id, reason string) {
	if c.journal == nil || id == "" {
		return
	}
	if err := c.journal.Fail(ctx, id, reason); err != nil {
		c.logger.Error("journal fail failed", zap.String("journal_id", id), zap.Error(err))
	}
}

func (c *Controller) publish(ctx context.Context, journalID string, res validation.PurchaseResult) {
	if c.events == nil {
		return
	}
	body, err := json.Marshal(CompletedEvent{
		JournalID:     journalID,
		TransactionID: res.TransactionID,
		EmpCode:       c.empCode,
		TotalAmountEx: res.TotalAmountEx,
		TotalAmount:   res.TotalAmount,
		CompletedAt:   c.nowFunc().UTC(),
	})
	if err != nil {
		c.logger.Error("marshal purchase event", zap.Error(err))
		return
	}
	attrs := map[string]string{
		aws.AttrTransaction: strconv.FormatInt(res.TransactionID, 10),
		aws.AttrJournalID:   journalID,
		aws.AttrGroup:       c.empCode,
	}
	if err := c.events.SendMessage(ctx, string(body), attrs); err != nil {
		c.logger.Error("publish purchase event", zap.Int64("transaction_id", res.TransactionID), zap.Error(err))
	}
}

func (c *Controller) incr(ctx context.Context, name string) {
	if c.metrics == nil {
		return
	}
	if err := c.metrics.Incr(ctx, name); err != nil {
		c.logger.Error("metric", zap.String("name", name), zap.Error(err))
	}
}
