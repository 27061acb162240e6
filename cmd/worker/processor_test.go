package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awsDynamo "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/journal"
	"github.com/imrishuroy/go-pos-frontend/internal/purchase"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

// --- mock implementations ---

type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["journal_id"].(*types.AttributeValueMemberS).Value
}

func (m *mockDynamo) PutItem(ctx context.Context, in *awsDynamo.PutItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[keyOf(in.Item)] = in.Item
	return &awsDynamo.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *awsDynamo.GetItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[keyOf(in.Key)]
	if !ok {
		return &awsDynamo.GetItemOutput{}, nil
	}
	return &awsDynamo.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *awsDynamo.UpdateItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
	if item["status"].(*types.AttributeValueMemberS).Value != expected {
		return nil, &types.ConditionalCheckFailedException{}
	}
	for k, v := range in.ExpressionAttributeValues {
		switch k {
		case ":expected":
		case ":new":
			item["status"] = v
		default:
			item[strings.TrimPrefix(k, ":")] = v
		}
	}
	return &awsDynamo.UpdateItemOutput{}, nil
}

type fakeFetcher struct {
	transactions map[int64]*validation.Transaction
	err          error
	calls        int
}

func (f *fakeFetcher) GetTransaction(ctx context.Context, id int64) (*validation.Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.transactions[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return t, nil
}

// --- helpers ---

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func recordedTransaction() *validation.Transaction {
	return &validation.Transaction{
		TransactionID: 42,
		Items: []validation.TransactionLine{
			// the backend records the pre-tax unit price and line amount
			{ProductName: "green tea", Quantity: 2, PriceInTax: d("100"), LineAmount: d("200")},
		},
		TotalAmountEx: d("200"),
		TotalAmount:   d("220"),
	}
}

func seed(t *testing.T, store *journal.Store, status string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.Create(context.Background(), journal.Entry{
		JournalID:     "j-1",
		EmpCode:       "000001",
		Status:        status,
		Items:         []journal.Item{{ProductID: 1, Quantity: 2}},
		TransactionID: 42,
		TotalAmountEx: "200",
		TotalAmount:   "220",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func eventFor(t *testing.T, journalID string, transactionID int64) events.SQSEvent {
	t.Helper()
	body, err := json.Marshal(purchase.CompletedEvent{
		JournalID:     journalID,
		TransactionID: transactionID,
		EmpCode:       "000001",
		TotalAmountEx: d("200"),
		TotalAmount:   d("220"),
		CompletedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: string(body)}}}
}

func statusOf(t *testing.T, store *journal.Store) *journal.Entry {
	t.Helper()
	e, err := store.Get(context.Background(), "j-1")
	if err != nil || e == nil {
		t.Fatalf("get: %v %v", e, err)
	}
	return e
}

// --- test cases ---

func TestWorkerProcess_Receipted(t *testing.T) {
	store := journal.NewStore(newMockDynamo(), "purchase-journal")
	seed(t, store, journal.StatusCompleted)
	fetcher := &fakeFetcher{transactions: map[int64]*validation.Transaction{42: recordedTransaction()}}
	p := NewProcessor(store, fetcher, nil)

	if err := p.Handle(context.Background(), eventFor(t, "j-1", 42)); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if e := statusOf(t, store); e.Status != journal.StatusReceipted {
		t.Fatalf("expected RECEIPTED, got %s", e.Status)
	}

	// redelivery is a no-op
	if err := p.Handle(context.Background(), eventFor(t, "j-1", 42)); err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one backend fetch, got %d", fetcher.calls)
	}
}

func TestWorkerProcess_TotalsMismatch(t *testing.T) {
	store := journal.NewStore(newMockDynamo(), "purchase-journal")
	seed(t, store, journal.StatusCompleted)
	trn := recordedTransaction()
	trn.TotalAmount = d("330")
	p := NewProcessor(store, &fakeFetcher{transactions: map[int64]*validation.Transaction{42: trn}}, nil)

	if err := p.Handle(context.Background(), eventFor(t, "j-1", 42)); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	e := statusOf(t, store)
	if e.Status != journal.StatusDiscrepancy {
		t.Fatalf("expected DISCREPANCY, got %s", e.Status)
	}
	if !strings.Contains(e.Note, "total_amount 330, journaled 220") {
		t.Fatalf("unexpected note %q", e.Note)
	}
	if strings.Contains(e.Note, "line amounts") {
		t.Fatalf("line amounts match total_amount_ex, got note %q", e.Note)
	}
}

func TestReconcile(t *testing.T) {
	entry := &journal.Entry{TransactionID: 42, TotalAmountEx: "200", TotalAmount: "220"}

	if problems := reconcile(entry, recordedTransaction()); len(problems) != 0 {
		t.Fatalf("expected a clean match, got %v", problems)
	}

	trn := recordedTransaction()
	trn.Items = append(trn.Items, validation.TransactionLine{ProductName: "rice ball", Quantity: 1, PriceInTax: d("150"), LineAmount: d("150")})
	problems := reconcile(entry, trn)
	if len(problems) != 1 || problems[0] != "line amounts sum to 350, total_amount_ex 200" {
		t.Fatalf("unexpected problems %v", problems)
	}

	trn = recordedTransaction()
	trn.TransactionID = 43
	if problems := reconcile(entry, trn); len(problems) != 1 || !strings.Contains(problems[0], "transaction id 43") {
		t.Fatalf("unexpected problems %v", problems)
	}
}

func TestWorkerProcess_TransactionMissing(t *testing.T) {
	store := journal.NewStore(newMockDynamo(), "purchase-journal")
	seed(t, store, journal.StatusCompleted)
	p := NewProcessor(store, &fakeFetcher{}, nil)

	if err := p.Handle(context.Background(), eventFor(t, "j-1", 42)); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	e := statusOf(t, store)
	if e.Status != journal.StatusDiscrepancy || e.Note != "transaction not found" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestWorkerProcess_BackendErrorRetries(t *testing.T) {
	store := journal.NewStore(newMockDynamo(), "purchase-journal")
	seed(t, store, journal.StatusCompleted)
	p := NewProcessor(store, &fakeFetcher{err: errors.New("connection refused")}, nil)

	if err := p.Handle(context.Background(), eventFor(t, "j-1", 42)); err == nil {
		t.Fatalf("expected error so the message is retried")
	}
	if e := statusOf(t, store); e.Status != journal.StatusCompleted {
		t.Fatalf("entry must stay COMPLETED, got %s", e.Status)
	}
}

func TestWorkerProcess_UnsettledEntry(t *testing.T) {
	store := journal.NewStore(newMockDynamo(), "purchase-journal")
	seed(t, store, journal.StatusSubmitted)
	p := NewProcessor(store, &fakeFetcher{}, nil)

	if err := p.Handle(context.Background(), eventFor(t, "j-1", 42)); err == nil {
		t.Fatalf("expected error for SUBMITTED entry")
	}
}

func TestWorkerProcess_BadMessages(t *testing.T) {
	store := journal.NewStore(newMockDynamo(), "purchase-journal")
	fetcher := &fakeFetcher{}
	p := NewProcessor(store, fetcher, nil)

	bad := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m-1", Body: "{not json"}}}
	if err := p.Handle(context.Background(), bad); err == nil {
		t.Fatalf("expected error for malformed body")
	}

	if err := p.Handle(context.Background(), eventFor(t, "", 42)); err != nil {
		t.Fatalf("event without journal id should be skipped, got %v", err)
	}

	if err := p.Handle(context.Background(), eventFor(t, "missing", 42)); err == nil {
		t.Fatalf("expected error for unknown journal entry")
	}
	if fetcher.calls != 0 {
		t.Fatalf("backend must not be called, got %d", fetcher.calls)
	}
}
