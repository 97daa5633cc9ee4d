// internal/notify/dispatcher_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, params)
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, params)
	return &sns.PublishOutput{}, nil
}

type mockContacts struct {
	email string
	phone string
	err   error
}

func (m *mockContacts) Contact(ctx context.Context, userID string) (string, string, error) {
	return m.email, m.phone, m.err
}

func testTemplates() *registry.TemplateRegistry {
	return &registry.TemplateRegistry{
		Version: "test",
		Templates: []registry.Template{
			{Kind: "application_approved", Subject: "{{title}}", Body: "Good news! {{content}}"},
		},
	}
}

func createDispatcher(t *testing.T, sesMock *mockSES, snsMock *mockSNS, contacts *mockContacts) *AWSDispatcher {
	return NewAWSDispatcher(sesMock, snsMock, contacts, testTemplates(), "noreply@example.com", logger.NewTestLogger(t))
}

func approvedNotification(channel string) models.Notification {
	return models.Notification{
		RecipientID: "provider-1",
		Kind:        models.NotifyApplicationApproved,
		Title:       "Application approved",
		Content:     "You were selected.",
		Link:        "/events/event-1",
		Channel:     channel,
	}
}

// ==========================
// Tests
// ==========================

func TestDispatcher_SendEmail(t *testing.T) {
	sesMock := &mockSES{}
	d := createDispatcher(t, sesMock, &mockSNS{}, &mockContacts{email: "p1@example.com"})

	ok := d.Send(context.Background(), approvedNotification("email"))
	require.True(t, ok)
	require.Len(t, sesMock.inputs, 1)

	input := sesMock.inputs[0]
	assert.Equal(t, []string{"p1@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "noreply@example.com", *input.Source)

	// Template applied around the raw content.
	assert.Equal(t, "Application approved", *input.Message.Subject.Data)
	assert.Equal(t, "Good news! You were selected.", *input.Message.Body.Text.Data)
}

func TestDispatcher_SendSMS(t *testing.T) {
	snsMock := &mockSNS{}
	d := createDispatcher(t, &mockSES{}, snsMock, &mockContacts{phone: "+5511999990000"})

	ok := d.Send(context.Background(), approvedNotification("sms"))
	require.True(t, ok)
	require.Len(t, snsMock.inputs, 1)
	assert.Equal(t, "+5511999990000", *snsMock.inputs[0].PhoneNumber)
}

func TestDispatcher_UnknownKindDropped(t *testing.T) {
	sesMock := &mockSES{}
	d := createDispatcher(t, sesMock, &mockSNS{}, &mockContacts{email: "p1@example.com"})

	n := approvedNotification("email")
	n.Kind = "spam_blast"
	assert.False(t, d.Send(context.Background(), n))
	assert.Empty(t, sesMock.inputs)
}

func TestDispatcher_ContactLookupFailure(t *testing.T) {
	d := createDispatcher(t, &mockSES{}, &mockSNS{}, &mockContacts{err: errors.New("no such user")})
	assert.False(t, d.Send(context.Background(), approvedNotification("email")))
}

func TestDispatcher_EmptyEmailFails(t *testing.T) {
	d := createDispatcher(t, &mockSES{}, &mockSNS{}, &mockContacts{})
	assert.False(t, d.Send(context.Background(), approvedNotification("email")))
}

func TestDispatcher_SESFailure(t *testing.T) {
	sesMock := &mockSES{err: errors.New("throttled")}
	d := createDispatcher(t, sesMock, &mockSNS{}, &mockContacts{email: "p1@example.com"})
	assert.False(t, d.Send(context.Background(), approvedNotification("email")))
}

func TestDispatcher_NoTemplateSendsRawContent(t *testing.T) {
	sesMock := &mockSES{}
	d := NewAWSDispatcher(sesMock, &mockSNS{}, &mockContacts{email: "p1@example.com"}, nil, "noreply@example.com", logger.NewTestLogger(t))

	n := approvedNotification("email")
	require.True(t, d.Send(context.Background(), n))
	require.Len(t, sesMock.inputs, 1)
	assert.Equal(t, n.Content, *sesMock.inputs[0].Message.Body.Text.Data)
}
