package sms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSOptions configures SNS client initialization.
type SNSOptions struct {
	// Region is the AWS region.
	Region string
	// Endpoint overrides the AWS endpoint (LocalStack).
	Endpoint string
	// AccessKey is the static access key ID.
	AccessKey string
	// SecretKey is the static secret access key.
	SecretKey string
	// SenderID is shown as the sender where carriers support it.
	SenderID string
	// Transactional marks messages as time-critical, which OTP codes are.
	Transactional bool
}

// SNS sends SMS through AWS SNS direct publish.
type SNS struct {
	client        snsPublisher
	senderID      string
	transactional bool
}

// NewSNS constructs an SNS sender with the provided options.
func NewSNS(ctx context.Context, opts SNSOptions) (*SNS, error) {
	cfgOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	} else if opts.Endpoint != "" {
		cfgOpts = append(cfgOpts, config.WithRegion("us-east-1"))
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("sms: load aws config: %w", err)
	}

	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return newSNSWithClient(client, opts), nil
}

func newSNSWithClient(client snsPublisher, opts SNSOptions) *SNS {
	return &SNS{
		client:        client,
		senderID:      opts.SenderID,
		transactional: opts.Transactional,
	}
}

// Send publishes msg to the phone number in msg.To.
func (s *SNS) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.validate(); err != nil {
		return Receipt{}, err
	}

	attrs := map[string]types.MessageAttributeValue{}
	if s.transactional {
		attrs["AWS.SNS.SMS.SMSType"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		}
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(msg.To),
		Message:           aws.String(msg.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("sms: sns publish: %w", err)
	}

	return Receipt{MessageID: aws.ToString(out.MessageId)}, nil
}
