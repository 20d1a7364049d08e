package transport

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/neilfitzgerald/JungleBus/internal/core/errs"
	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
)

// RawMessage is one message as returned from the queue, before parsing.
type RawMessage struct {
	ReceiptHandle           string
	Body                    string
	ApproximateReceiveCount int
}

// QueueClient receives, deletes, and enqueues messages on the input queue,
// and binds that queue to topics.
type QueueClient interface {
	// Receive long-polls the queue; it returns an empty slice on
	// cancellation or timeout rather than raising.
	Receive(ctx context.Context) ([]RawMessage, error)

	// Delete acknowledges a received message by receipt handle. Idempotent
	// from the caller's perspective.
	Delete(ctx context.Context, receiptHandle string) error

	// Subscribe binds the queue to the topic for each fully-qualified type
	// name, using TopicName to derive the topic from the type.
	Subscribe(ctx context.Context, fullyQualifiedTypeNames []string) error

	// Enqueue pushes a locally-built message directly to this queue.
	Enqueue(ctx context.Context, body string, attributes map[string]string) error

	// Address is this queue's stable identifier, used as the "sender"
	// attribute on every message a bus owning this queue publishes or
	// enqueues.
	Address() string
}

const approximateReceiveCountAttr = "ApproximateReceiveCount"

// AWSQueueClient is the concrete QueueClient backed by
// aws-sdk-go-v2/service/sqs, with Subscribe calling aws-sdk-go-v2/service/sns.
type AWSQueueClient struct {
	sqsClient *sqs.Client
	snsClient *sns.Client
	queueURL  string
	queueARN  string
	waitTime  int32
	logger    logging.Logger
}

// NewAWSQueueClient wraps sqs/sns clients as a QueueClient bound to
// queueURL. queueARN is used when subscribing the queue to topics and
// should be resolved once via GetQueueAttributes at construction time by
// the caller (kept out of this constructor so tests can supply fakes).
func NewAWSQueueClient(sqsClient *sqs.Client, snsClient *sns.Client, queueURL, queueARN string, waitTimeSeconds int32, logger logging.Logger) *AWSQueueClient {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AWSQueueClient{
		sqsClient: sqsClient,
		snsClient: snsClient,
		queueURL:  queueURL,
		queueARN:  queueARN,
		waitTime:  waitTimeSeconds,
		logger:    logger,
	}
}

func (q *AWSQueueClient) Address() string { return q.queueURL }

func (q *AWSQueueClient) Receive(ctx context.Context) ([]RawMessage, error) {
	out, err := q.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(q.queueURL),
		MaxNumberOfMessages:         10,
		WaitTimeSeconds:             q.waitTime,
		MessageAttributeNames:       []string{"All"},
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}

	result := make([]RawMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		result = append(result, RawMessage{
			ReceiptHandle:           aws.ToString(m.ReceiptHandle),
			Body:                    aws.ToString(m.Body),
			ApproximateReceiveCount: receiveCountOf(m.Attributes),
		})
	}
	return result, nil
}

func receiveCountOf(attrs map[string]string) int {
	raw, ok := attrs[approximateReceiveCountAttr]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (q *AWSQueueClient) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	return err
}

func (q *AWSQueueClient) Subscribe(ctx context.Context, fullyQualifiedTypeNames []string) error {
	for _, typeName := range fullyQualifiedTypeNames {
		topicARN, err := q.resolveTopicARN(ctx, TopicName(typeName))
		if err != nil {
			return err
		}

		_, err = q.snsClient.Subscribe(ctx, &sns.SubscribeInput{
			TopicArn: aws.String(topicARN),
			Protocol: aws.String("sqs"),
			Endpoint: aws.String(q.queueARN),
		})
		if err != nil {
			return err
		}
		q.logger.Info("subscribed queue to topic", logging.Fields{"topic": TopicName(typeName), "queue": q.queueURL})
	}
	return nil
}

func (q *AWSQueueClient) resolveTopicARN(ctx context.Context, topicName string) (string, error) {
	var nextToken *string
	for {
		out, err := q.snsClient.ListTopics(ctx, &sns.ListTopicsInput{NextToken: nextToken})
		if err != nil {
			return "", err
		}
		for _, t := range out.Topics {
			arn := aws.ToString(t.TopicArn)
			if arnTopicName(arn) == topicName {
				return arn, nil
			}
		}
		if out.NextToken == nil {
			return "", errs.ErrUnknownTopic
		}
		nextToken = out.NextToken
	}
}

func (q *AWSQueueClient) Enqueue(ctx context.Context, body string, attributes map[string]string) error {
	attrs := make(map[string]sqstypes.MessageAttributeValue, len(attributes))
	for k, v := range attributes {
		attrs[k] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	_, err := q.sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(q.queueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: attrs,
	})
	return err
}

// ResolveQueueARN fetches a queue's ARN attribute, used once at
// construction time to populate AWSQueueClient's Subscribe endpoint.
func ResolveQueueARN(ctx context.Context, client *sqs.Client, queueURL string) (string, error) {
	out, err := client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return "", err
	}
	return out.Attributes[string(sqstypes.QueueAttributeNameQueueArn)], nil
}
