// Package notify tells the site owner about new leads.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Notifier is told about every saved lead.
type Notifier interface {
	LeadCaptured(ctx context.Context, email string) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) LeadCaptured(context.Context, string) error { return nil }

// sesAPI is the part of *ses.Client the notifier uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES emails the admin through Amazon SES.
type SES struct {
	client sesAPI
	from   string
	to     string
}

// NewSES loads AWS credentials from the default chain for region.
func NewSES(ctx context.Context, region, from, to string) (*SES, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SES{client: ses.NewFromConfig(cfg), from: from, to: to}, nil
}

func (s *SES) LeadCaptured(ctx context.Context, email string) error {
	subject := "New ReelForge lead"
	body := fmt.Sprintf("A visitor left their email on ReelForge.\n\nEmail: %s\nTime: %s\n",
		email, time.Now().UTC().Format(time.RFC1123))

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{s.to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send lead email: %w", err)
	}
	slog.Debug("Lead notification sent", "to", s.to)
	return nil
}
