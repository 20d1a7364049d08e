package transport

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/neilfitzgerald/JungleBus/internal/core/errs"
	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
)

// TopicPublisher publishes a serialized payload plus attributes to the
// topic derived from a declared message type, creating topics in
// RegisterTypes and caching their ids for the life of the process. Publish
// does not create topics; it only looks up existing ones.
type TopicPublisher interface {
	// RegisterTypes ensures a topic exists for each declared publishable
	// type, recording its id in the TopicCache.
	RegisterTypes(ctx context.Context, fullyQualifiedTypeNames []string) error

	// Publish looks up the topic id for declaredType and emits the body
	// plus attributes, adding messageType and fromSns markers.
	Publish(ctx context.Context, body string, declaredType string, attributes map[string]string) error
}

// topicCache is a concurrent-safe mapping of topicName to topicId (ARN).
// Once a topic name is resolved it is never cleared during the process
// lifetime.
type topicCache struct {
	mu  sync.RWMutex
	ids map[string]string
}

func newTopicCache() *topicCache {
	return &topicCache{ids: make(map[string]string)}
}

func (c *topicCache) get(topicName string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[topicName]
	return id, ok
}

func (c *topicCache) set(topicName, topicID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[topicName] = topicID
}

// AWSTopicPublisher is the concrete TopicPublisher backed by
// aws-sdk-go-v2/service/sns.
type AWSTopicPublisher struct {
	client *sns.Client
	cache  *topicCache
	logger logging.Logger
}

// NewAWSTopicPublisher wraps an sns.Client as a TopicPublisher.
func NewAWSTopicPublisher(client *sns.Client, logger logging.Logger) *AWSTopicPublisher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AWSTopicPublisher{client: client, cache: newTopicCache(), logger: logger}
}

func (p *AWSTopicPublisher) RegisterTypes(ctx context.Context, fullyQualifiedTypeNames []string) error {
	for _, typeName := range fullyQualifiedTypeNames {
		topicName := TopicName(typeName)
		if _, ok := p.cache.get(topicName); ok {
			continue
		}

		out, err := p.client.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(topicName)})
		if err != nil {
			return &errs.PublishError{Topic: topicName, Err: err}
		}

		p.cache.set(topicName, aws.ToString(out.TopicArn))
		p.logger.Info("registered topic", logging.Fields{"topic": topicName, "arn": aws.ToString(out.TopicArn)})
	}
	return nil
}

func (p *AWSTopicPublisher) Publish(ctx context.Context, body string, declaredType string, attributes map[string]string) error {
	topicName := TopicName(declaredType)

	topicID, ok := p.cache.get(topicName)
	if !ok {
		found, err := p.findTopic(ctx, topicName)
		if err != nil {
			return &errs.PublishError{Topic: topicName, Err: err}
		}
		if found == "" {
			return &errs.PublishError{Topic: topicName, Err: errs.ErrUnknownTopic}
		}
		p.cache.set(topicName, found)
		topicID = found
	}

	attrs := make(map[string]snstypes.MessageAttributeValue, len(attributes)+2)
	for k, v := range attributes {
		attrs[k] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	attrs["messageType"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(declaredType)}
	attrs["fromSns"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String("True")}

	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(topicID),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return &errs.PublishError{Topic: topicName, Err: err}
	}
	return nil
}

// findTopic searches existing topics for one matching topicName when the
// cache hasn't seen it yet, e.g. created by a different process.
func (p *AWSTopicPublisher) findTopic(ctx context.Context, topicName string) (string, error) {
	var nextToken *string
	for {
		out, err := p.client.ListTopics(ctx, &sns.ListTopicsInput{NextToken: nextToken})
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
			return "", nil
		}
		nextToken = out.NextToken
	}
}

func arnTopicName(arn string) string {
	for i := len(arn) - 1; i >= 0; i-- {
		if arn[i] == ':' {
			return arn[i+1:]
		}
	}
	return arn
}
