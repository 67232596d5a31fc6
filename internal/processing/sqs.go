package processing

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the subset of the SQS client used by SQSNotifier.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier sends processing requests to an SQS queue.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
}

// NewSQSNotifier constructs an SQS-backed notifier using the default credential chain.
func NewSQSNotifier(ctx context.Context, region, queueURL string) (*SQSNotifier, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("PROCESSING_SQS_QUEUE_URL is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewSQSNotifierWithClient(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewSQSNotifierWithClient builds a notifier over an existing client.
func NewSQSNotifierWithClient(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL}
}

// Notify delivers the request to the configured queue.
func (s *SQSNotifier) Notify(ctx context.Context, req Request) error {
	payload, err := EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"workspace_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(req.WorkspaceID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

func (s *SQSNotifier) Close() error { return nil }

var _ Notifier = (*SQSNotifier)(nil)
