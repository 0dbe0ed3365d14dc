// internal/notify/notifier_test.go
package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bi-training-pipeline/internal/common/config"
	"bi-training-pipeline/internal/stages/analyze"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Test Helper Functions
// ==========================

type fakeEmailSender struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.input = input
	return &ses.SendEmailOutput{}, f.err
}

type fakeTopicPublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeTopicPublisher) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.input = input
	return &sns.PublishOutput{}, f.err
}

func testNotificationConfig() config.NotificationConfig {
	cfg := config.NotificationConfig{ScoreThreshold: 60}
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "pipeline@example.com"
	cfg.Email.ToEmail = "team@example.com"
	cfg.SNS.Enabled = true
	cfg.SNS.TopicARN = "arn:aws:sns:us-east-1:123456789012:data-quality"
	return cfg
}

func lowQualityAnalysis() *analyze.Analysis {
	return &analyze.Analysis{
		TotalExamples: 100,
		QualityScore:  45,
		Verdict:       analyze.VerdictNeedsWork,
		Issues:        []string{"Non-BI term found: 'departments' in question"},
	}
}

// ==========================
// Notifier Tests
// ==========================

func TestNotifyLowQuality_SendsBothChannels(t *testing.T) {
	email := &fakeEmailSender{}
	topic := &fakeTopicPublisher{}
	notifier := NewNotifier(testNotificationConfig(), email, topic, NewTestLogger(t))

	err := notifier.NotifyLowQuality(context.Background(), lowQualityAnalysis())
	require.NoError(t, err)

	require.NotNil(t, email.input)
	assert.Equal(t, "pipeline@example.com", *email.input.Source)
	assert.Equal(t, []string{"team@example.com"}, email.input.Destination.ToAddresses)
	assert.Contains(t, *email.input.Message.Subject.Data, "45/100")
	assert.Contains(t, *email.input.Message.Body.Text.Data, "departments")

	require.NotNil(t, topic.input)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:data-quality", *topic.input.TopicArn)
	assert.Contains(t, *topic.input.Message, analyze.VerdictNeedsWork)
}

func TestNotifyLowQuality_DisabledChannelsAreSkipped(t *testing.T) {
	cfg := testNotificationConfig()
	cfg.Email.Enabled = false
	cfg.SNS.Enabled = false

	email := &fakeEmailSender{}
	topic := &fakeTopicPublisher{}
	notifier := NewNotifier(cfg, email, topic, NewTestLogger(t))

	err := notifier.NotifyLowQuality(context.Background(), lowQualityAnalysis())
	require.NoError(t, err)
	assert.Nil(t, email.input)
	assert.Nil(t, topic.input)
}

func TestNotifyLowQuality_EmailFailureStillPublishes(t *testing.T) {
	email := &fakeEmailSender{err: fmt.Errorf("ses unavailable")}
	topic := &fakeTopicPublisher{}
	notifier := NewNotifier(testNotificationConfig(), email, topic, NewTestLogger(t))

	err := notifier.NotifyLowQuality(context.Background(), lowQualityAnalysis())
	assert.Error(t, err)
	assert.NotNil(t, topic.input) // SNS attempted despite email failure
}

func TestNotifyLowQuality_NilClientsAreSafe(t *testing.T) {
	notifier := NewNotifier(testNotificationConfig(), nil, nil, NewTestLogger(t))
	assert.NoError(t, notifier.NotifyLowQuality(context.Background(), lowQualityAnalysis()))
}
