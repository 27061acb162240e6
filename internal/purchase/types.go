package purchase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

// State of the purchase flow.
type State string

const (
	StateIdle       State = "IDLE"
	StateSubmitting State = "SUBMITTING"
	StateConfirming State = "CONFIRMING"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSubmissionInFlight = errors.New("a purchase is already in progress")
	ErrNotConfirming      = errors.New("no purchase confirmation to acknowledge")
)

// Submitter sends purchase requests to the backend.
type Submitter interface {
	CreatePurchase(ctx context.Context, req validation.PurchaseRequest) (*validation.PurchaseResult, error)
}

// Journal records each submission and its outcome.
type Journal interface {
	Begin(ctx context.Context, req validation.PurchaseRequest) (string, error)
	Complete(ctx context.Context, journalID string, res validation.PurchaseResult) error
	Fail(ctx context.Context, journalID, reason string) error
}

// Sender publishes a message body with string attributes.
type Sender interface {
	SendMessage(ctx context.Context, body string, attributes map[string]string) error
}

// Metrics increments named counters.
type Metrics interface {
	Incr(ctx context.Context, name string) error
}

// Confirmation is what the blocking confirmation surface displays.
type Confirmation struct {
	TransactionID int64
	TotalAmountEx decimal.Decimal
	TotalAmount   decimal.Decimal
}

// Navigation is the destination reached after acknowledging a confirmation.
type Navigation struct {
	TransactionID int64
	Path          string
}

// HistoryPath is the history view for a transaction.
func HistoryPath(transactionID int64) string {
	return "/history?id=" + strconv.FormatInt(transactionID, 10)
}

// View is a consistent snapshot of the controller for rendering.
type View struct {
	State        State
	Confirmation *Confirmation
	Notice       string
	PendingClear bool
}

// CompletedEvent is published after a successful purchase.
type CompletedEvent struct {
	JournalID     string          `json:"journal_id,omitempty"`
	TransactionID int64           `json:"transaction_id"`
	EmpCode       string          `json:"emp_cd"`
	TotalAmountEx decimal.Decimal `json:"total_amount_ex"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CompletedAt   time.Time       `json:"completed_at"`
}
