package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/journal"
	"github.com/imrishuroy/go-pos-frontend/internal/purchase"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

// TransactionFetcher reads recorded transactions from the backend.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, id int64) (*validation.Transaction, error)
}

// Processor reconciles purchase-completed events against the backend's
// transaction record and settles the matching journal entry.
type Processor struct {
	journal *journal.Store
	backend TransactionFetcher
	logger  *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(store *journal.Store, fetcher TransactionFetcher, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{journal: store, backend: fetcher, logger: logger}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Info("received messages", zap.Int("count", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda retries the batch; repeated failures land in the DLQ.
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg purchase.CompletedEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	log := p.logger.With(
		zap.String("journal_id", msg.JournalID),
		zap.Int64("transaction_id", msg.TransactionID))

	if msg.JournalID == "" {
		// published without a journal; nothing to settle
		log.Warn("event without journal id")
		return nil
	}

	entry, err := p.journal.Get(ctx, msg.JournalID)
	if err != nil {
		return fmt.Errorf("failed to fetch journal entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("journal entry not found: %s", msg.JournalID)
	}

	switch entry.Status {
	case journal.StatusCompleted:
	case journal.StatusReceipted, journal.StatusDiscrepancy:
		log.Info("already settled", zap.String("status", entry.Status))
		return nil
	default:
		return fmt.Errorf("journal=%s has unexpected status %s", msg.JournalID, entry.Status)
	}

	trn, err := p.backend.GetTransaction(ctx, msg.TransactionID)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("failed to fetch transaction: %w", err)
	}

	var problems []string
	if err != nil {
		problems = append(problems, "transaction not found")
	} else {
		problems = reconcile(entry, trn)
	}

	if len(problems) == 0 {
		err = p.journal.MarkReceipted(ctx, msg.JournalID)
	} else {
		err = p.journal.MarkDiscrepancy(ctx, msg.JournalID, strings.Join(problems, "; "))
	}
	if errors.Is(err, journal.ErrStatusMismatch) {
		log.Info("settled by a competing worker")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to settle journal entry: %w", err)
	}

	if len(problems) > 0 {
		log.Warn("transaction discrepancy", zap.Strings("problems", problems))
		return nil
	}
	log.Info("transaction receipted")
	return nil
}

// reconcile compares the journaled purchase result with the recorded
// transaction and returns a description of every mismatch.
func reconcile(entry *journal.Entry, trn *validation.Transaction) []string {
	var problems []string
	if trn.TransactionID != entry.TransactionID {
		problems = append(problems, fmt.Sprintf("transaction id %d, journaled %d", trn.TransactionID, entry.TransactionID))
	}
	problems = append(problems, compareAmount("total_amount_ex", entry.TotalAmountEx, trn.TotalAmountEx)...)
	problems = append(problems, compareAmount("total_amount", entry.TotalAmount, trn.TotalAmount)...)

	// line amounts are recorded before tax
	sum := decimal.Zero
	for _, l := range trn.Items {
		sum = sum.Add(l.LineAmount)
	}
	if !sum.Equal(trn.TotalAmountEx) {
		problems = append(problems, fmt.Sprintf("line amounts sum to %s, total_amount_ex %s", sum, trn.TotalAmountEx))
	}
	return problems
}

func compareAmount(field, journaled string, recorded decimal.Decimal) []string {
	want, err := decimal.NewFromString(journaled)
	if err != nil {
		return []string{fmt.Sprintf("%s: journaled value %q is not a number", field, journaled)}
	}
	if !want.Equal(recorded) {
		return []string{fmt.Sprintf("%s %s, journaled %s", field, recorded, want)}
	}
	return nil
}
