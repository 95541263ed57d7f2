// internal/common/aws/ses.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Mailer sends plain text emails from a fixed sender.
type Mailer struct {
	api  SESAPI
	from string
}

func NewMailer(cfg aws.Config, from string) *Mailer {
	return &Mailer{api: ses.NewFromConfig(cfg), from: from}
}

// NewMailerWithAPI is used by tests to inject a fake SES client.
func NewMailerWithAPI(api SESAPI, from string) *Mailer {
	return &Mailer{api: api, from: from}
}

// SendEmail returns the SES message id.
func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	out, err := m.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
