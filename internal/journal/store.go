package journal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-pos-frontend/internal/aws"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

var (
	// ErrStatusMismatch is returned when a conditional status transition fails.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrAlreadyExists is returned when an entry with the same id exists.
	ErrAlreadyExists = errors.New("journal entry already exists")
)

// Store encapsulates operations on the purchase journal table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	newID     func() string
}

// NewStore creates a new journal Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
}

// Begin records a submission about to be sent and returns its journal id.
func (s *Store) Begin(ctx context.Context, req validation.PurchaseRequest) (string, error) {
	now := s.nowFunc().UTC()
	e := Entry{
		JournalID: s.newID(),
		EmpCode:   req.EmpCode,
		Status:    StatusSubmitted,
		Items:     make([]Item, 0, len(req.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, it := range req.Items {
		e.Items = append(e.Items, Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if err := s.Create(ctx, e); err != nil {
		return "", err
	}
	return e.JournalID, nil
}

// Create puts a new entry, guarded by attribute_not_exists(journal_id).
func (s *Store) Create(ctx context.Context, e Entry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(journal_id)"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get fetches an entry by journal_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, journalID string) (*Entry, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"journal_id": &types.AttributeValueMemberS{Value: journalID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &e, nil
}

// Complete moves SUBMITTED -> COMPLETED and stores the backend result.
func (s *Store) Complete(ctx context.Context, journalID string, res validation.PurchaseResult) error {
	return s.transition(ctx, journalID, StatusSubmitted, StatusCompleted, map[string]types.AttributeValue{
		"transaction_id":  &types.AttributeValueMemberN{Value: strconv.FormatInt(res.TransactionID, 10)},
		"total_amount_ex": &types.AttributeValueMemberS{Value: res.TotalAmountEx.String()},
		"total_amount":    &types.AttributeValueMemberS{Value: res.TotalAmount.String()},
	})
}

// Fail moves SUBMITTED -> FAILED with the rejection reason.
func (s *Store) Fail(ctx context.Context, journalID, reason string) error {
	return s.transition(ctx, journalID, StatusSubmitted, StatusFailed, map[string]types.AttributeValue{
		"note": &types.AttributeValueMemberS{Value: reason},
	})
}

// MarkReceipted moves COMPLETED -> RECEIPTED once the backend record was verified.
func (s *Store) MarkReceipted(ctx context.Context, journalID string) error {
	return s.UpdateStatus(ctx, journalID, StatusCompleted, StatusReceipted)
}

// MarkDiscrepancy moves COMPLETED -> DISCREPANCY when the backend record disagrees.
func (s *Store) MarkDiscrepancy(ctx context.Context, journalID, note string) error {
	return s.transition(ctx, journalID, StatusCompleted, StatusDiscrepancy, map[string]types.AttributeValue{
		"note": &types.AttributeValueMemberS{Value: note},
	})
}

// UpdateStatus conditionally updates the entry status from expected -> newStatus.
// Returns nil on success, ErrStatusMismatch if condition failed.
func (s *Store) UpdateStatus(ctx context.Context, journalID, expectedStatus, newStatus string) error {
	return s.transition(ctx, journalID, expectedStatus, newStatus, nil)
}

func (s *Store) transition(ctx context.Context, journalID, expectedStatus, newStatus string, set map[string]types.AttributeValue) error {
	now := s.nowFunc().UTC()
	updateExpr := "SET #s = :new, updated_at = :updated_at"
	values := map[string]types.AttributeValue{
		":new":        &types.AttributeValueMemberS{Value: newStatus},
		":expected":   &types.AttributeValueMemberS{Value: expectedStatus},
		":updated_at": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
	}
	for attr, v := range set {
		updateExpr += fmt.Sprintf(", %s = :%s", attr, attr)
		values[":"+attr] = v
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"journal_id": &types.AttributeValueMemberS{Value: journalID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("#s = :expected"),
	})
	if err != nil {
		var sc *types.ConditionalCheckFailedException
		if errors.As(err, &sc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
