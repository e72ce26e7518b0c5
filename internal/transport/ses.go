package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/hirespeedy/outreach-engine/internal/config"
)

// SESTransport sends through AWS SESv2.
type SESTransport struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	replyTo   string
}

// NewSESTransport builds the SESv2 client. Static credentials from the
// config take precedence; otherwise the default chain (env, instance role)
// applies.
func NewSESTransport(ctx context.Context, cfg appconfig.SESConfig) (*SESTransport, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SESTransport{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		replyTo:   cfg.ReplyTo,
	}, nil
}

// Send delivers one message and returns the SES message id.
func (t *SESTransport) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	from := t.fromEmail
	if t.fromName != "" {
		from = fmt.Sprintf("%s <%s>", t.fromName, t.fromEmail)
	}

	body := &types.Body{}
	if msg.BodyText != "" {
		body.Text = &types.Content{Data: aws.String(msg.BodyText)}
	}
	if msg.BodyHTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.BodyHTML)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    body,
			},
		},
	}
	if t.replyTo != "" {
		input.ReplyToAddresses = []string{t.replyTo}
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
