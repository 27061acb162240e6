package aws

import (
	"context"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Attribute keys the publisher understands for FIFO queues.
const (
	AttrGroup       = "emp_cd"
	AttrJournalID   = "journal_id"
	AttrTransaction = "transaction_id"
)

const defaultGroup = "pos"

// Publisher sends purchase events to an SQS queue.
//
// For FIFO queues (URL ending in ".fifo") each employee code is its own
// message group, and messages are deduplicated by journal id, or by
// transaction id when no journal is kept.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
	fifo     bool
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}
}

// SendMessage sends a JSON message body. Non-empty attributes are sent as
// String message attributes.
func (p *Publisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:          sdkaws.String(p.QueueURL),
		MessageBody:       sdkaws.String(messageBody),
		MessageAttributes: messageAttributes(attributes),
	}
	if p.fifo {
		group := attributes[AttrGroup]
		if group == "" {
			group = defaultGroup
		}
		input.MessageGroupId = sdkaws.String(group)
		if id := firstNonEmpty(attributes[AttrJournalID], attributes[AttrTransaction]); id != "" {
			input.MessageDeduplicationId = sdkaws.String(id)
		}
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message to %s: %w", p.QueueURL, err)
	}
	return nil
}

func messageAttributes(attributes map[string]string) map[string]sqstypes.MessageAttributeValue {
	var out map[string]sqstypes.MessageAttributeValue
	for k, v := range attributes {
		if v == "" {
			continue
		}
		if out == nil {
			out = map[string]sqstypes.MessageAttributeValue{}
		}
		out[k] = sqstypes.MessageAttributeValue{
			DataType:    sdkaws.String("String"),
			StringValue: sdkaws.String(v),
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
