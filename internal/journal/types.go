package journal

import "time"

// Journal statuses
const (
	StatusSubmitted   = "SUBMITTED"
	StatusCompleted   = "COMPLETED"
	StatusFailed      = "FAILED"
	StatusReceipted   = "RECEIPTED"
	StatusDiscrepancy = "DISCREPANCY"
)

// Item is one submitted (product, quantity) pair.
type Item struct {
	ProductID int64 `dynamodbav:"prd_id"`
	Quantity  int   `dynamodbav:"quantity"`
}

// Entry is the item stored in the purchase journal table, one per submission.
type Entry struct {
	JournalID     string    `dynamodbav:"journal_id"` // PK
	EmpCode       string    `dynamodbav:"emp_cd"`
	Status        string    `dynamodbav:"status"` // SUBMITTED | COMPLETED | FAILED | RECEIPTED | DISCREPANCY
	Items         []Item    `dynamodbav:"items"`
	TransactionID int64     `dynamodbav:"transaction_id,omitempty"`
	TotalAmountEx string    `dynamodbav:"total_amount_ex,omitempty"` // decimal string
	TotalAmount   string    `dynamodbav:"total_amount,omitempty"`
	Note          string    `dynamodbav:"note,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
}
