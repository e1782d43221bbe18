package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// AlertPublisher publishes account-security alerts (new sign-ins) to a topic.
type AlertPublisher interface {
	PublishSignIn(ctx context.Context, uid, email, method string) error
}

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type publisher struct {
	client   publishAPI
	topicARN string
}

// NewPublisher returns a publisher for topicARN.
func NewPublisher(awsCfg aws.Config, topicARN string) AlertPublisher {
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: topicARN}
}

func (p *publisher) PublishSignIn(ctx context.Context, uid, email, method string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("New sign-in"),
		Message:  aws.String(fmt.Sprintf("New %s sign-in for %s", method, email)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"uid": {DataType: aws.String("String"), StringValue: aws.String(uid)},
		},
	})
	return err
}
