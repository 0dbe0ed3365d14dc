// Package notify sends alerts when a dataset analysis scores below the
// review threshold.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"bi-training-pipeline/internal/common/config"
	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/stages/analyze"
)

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// TopicPublisher is satisfied by *aws.SNSClient.
type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Notifier implements the analyze stage's low-quality alerting.
type Notifier struct {
	config config.NotificationConfig
	email  EmailSender    // optional
	topic  TopicPublisher // optional
	logger Logger
}

func NewNotifier(cfg config.NotificationConfig, email EmailSender, topic TopicPublisher, log Logger) *Notifier {
	return &Notifier{
		config: cfg,
		email:  email,
		topic:  topic,
		logger: log.With(map[string]interface{}{
			"component": "notifier",
		}),
	}
}

// NotifyLowQuality sends the configured alerts for a low-scoring analysis.
// Both channels are attempted; the first failure is returned.
func (n *Notifier) NotifyLowQuality(ctx context.Context, a *analyze.Analysis) error {
	subject := fmt.Sprintf("Training data quality below threshold: %d/100", a.QualityScore)
	body := buildBody(a)

	var firstErr error

	if n.config.Email.Enabled && n.email != nil {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			firstErr = err
		}
	}

	if n.config.SNS.Enabled && n.topic != nil {
		if err := n.publish(ctx, subject, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(n.config.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.config.Email.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.email.SendEmail(ctx, input); err != nil {
		n.logger.Error("failed to send quality alert email", map[string]interface{}{
			"error": err.Error(),
		})
		return errors.NewNotificationSendFailedError("email", err)
	}

	n.logger.Info("quality alert email sent", map[string]interface{}{
		"to": n.config.Email.ToEmail,
	})
	return nil
}

func (n *Notifier) publish(ctx context.Context, subject, body string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(n.config.SNS.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	}

	if _, err := n.topic.Publish(ctx, input); err != nil {
		n.logger.Error("failed to publish quality alert", map[string]interface{}{
			"error": err.Error(),
		})
		return errors.NewNotificationSendFailedError("sns", err)
	}

	n.logger.Info("quality alert published", map[string]interface{}{
		"topicArn": n.config.SNS.TopicARN,
	})
	return nil
}

func buildBody(a *analyze.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset analysis finished with quality score %d/100.\n", a.QualityScore)
	fmt.Fprintf(&b, "Verdict: %s\n\n", a.Verdict)
	fmt.Fprintf(&b, "Total examples: %d\n", a.TotalExamples)
	fmt.Fprintf(&b, "Validity rate: %.1f%%\n", a.OutputQuality.ValidityRate*100)
	fmt.Fprintf(&b, "Complexity ratio: %.1f%%\n", a.ComplexityDistribution.ComplexityRatio*100)
	fmt.Fprintf(&b, "Issues identified: %d\n", len(a.Issues))

	for i, issue := range a.Issues {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(a.Issues)-10)
			break
		}
		fmt.Fprintf(&b, "  - %s\n", issue)
	}
	return b.String()
}
