package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Service is a bit set of AWS-backed side channels.
type Service uint8

const (
	ServiceJournal Service = 1 << iota // DynamoDB
	ServiceEvents                      // SQS
	ServiceMetrics                     // CloudWatch
)

// AWSClients bundles the clients of the enabled side channels. Clients for
// services that were not requested are nil.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewAWSClients loads the AWS config once and builds a client per requested service.
func NewAWSClients(ctx context.Context, s Settings, services Service) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, s)
	if err != nil {
		return nil, err
	}

	clients := &AWSClients{}
	if services&ServiceJournal != 0 {
		clients.DynamoDB = dynamodb.NewFromConfig(cfg)
	}
	if services&ServiceEvents != 0 {
		clients.SQS = sqs.NewFromConfig(cfg)
	}
	if services&ServiceMetrics != 0 {
		clients.CloudWatch = cloudwatch.NewFromConfig(cfg)
	}
	return clients, nil
}
