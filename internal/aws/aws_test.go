package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), Settings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "us-east-1" {
		t.Fatalf("expected default region 'us-east-1', got %s", cfg.Region)
	}
}

func TestLoadAWSConfig_WithEndpointOverride(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), Settings{
		Region:           "ap-northeast-1",
		EndpointOverride: "http://localhost:4566",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "ap-northeast-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
	if cfg.BaseEndpoint == nil || *cfg.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("endpoint override not applied: %v", cfg.BaseEndpoint)
	}
}

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublisher_SendMessage(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/queue")

	err := p.SendMessage(context.Background(), `{"transaction_id":42}`, map[string]string{
		"transaction_id": "42",
		"journal_id":     "",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	in := mock.inputs[0]
	if *in.QueueUrl != "https://sqs.local/queue" || *in.MessageBody != `{"transaction_id":42}` {
		t.Fatalf("unexpected input: %+v", in)
	}
	if len(in.MessageAttributes) != 1 || *in.MessageAttributes["transaction_id"].StringValue != "42" {
		t.Fatalf("unexpected attributes: %+v", in.MessageAttributes)
	}

	mock.err = errors.New("boom")
	if err := p.SendMessage(context.Background(), "{}", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestPublisher_FIFO(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/purchases.fifo")

	if err := p.SendMessage(context.Background(), "{}", map[string]string{
		AttrTransaction: "42",
		AttrJournalID:   "j-1",
		AttrGroup:       "000001",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	in := mock.inputs[0]
	if in.MessageGroupId == nil || *in.MessageGroupId != "000001" {
		t.Fatalf("unexpected group: %v", in.MessageGroupId)
	}
	if in.MessageDeduplicationId == nil || *in.MessageDeduplicationId != "j-1" {
		t.Fatalf("expected journal id dedup, got %v", in.MessageDeduplicationId)
	}

	// without a journal the transaction id deduplicates, group falls back
	if err := p.SendMessage(context.Background(), "{}", map[string]string{AttrTransaction: "43"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	in = mock.inputs[1]
	if *in.MessageGroupId != defaultGroup || *in.MessageDeduplicationId != "43" {
		t.Fatalf("unexpected fifo fields: %s %s", *in.MessageGroupId, *in.MessageDeduplicationId)
	}
}

func TestPublisher_StandardQueueHasNoGroup(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/purchases")
	if err := p.SendMessage(context.Background(), "{}", map[string]string{AttrJournalID: "j-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if mock.inputs[0].MessageGroupId != nil || mock.inputs[0].MessageDeduplicationId != nil {
		t.Fatalf("standard queue must not carry fifo fields")
	}
}

func TestNewAWSClients_OnlyRequested(t *testing.T) {
	clients, err := NewAWSClients(context.Background(), Settings{}, ServiceJournal|ServiceMetrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clients.DynamoDB == nil || clients.CloudWatch == nil {
		t.Fatalf("expected journal and metrics clients")
	}
	if clients.SQS != nil {
		t.Fatalf("events client was not requested")
	}
}

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetrics_Incr(t *testing.T) {
	mock := &mockCloudWatch{}
	m := NewMetrics(mock, "POS")

	if err := m.Incr(context.Background(), MetricPurchaseSucceeded); err != nil {
		t.Fatalf("incr: %v", err)
	}
	in := mock.inputs[0]
	if *in.Namespace != "POS" || len(in.MetricData) != 1 {
		t.Fatalf("unexpected input: %+v", in)
	}
	d := in.MetricData[0]
	if *d.MetricName != MetricPurchaseSucceeded || *d.Value != 1 || d.Unit != cwtypes.StandardUnitCount {
		t.Fatalf("unexpected datum: %+v", d)
	}
}
