// internal/notify/dispatcher.go
package notify

import (
	"context"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/metrics"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Dispatcher is the fire-and-forget notification contract. Send reports
// delivery as a boolean; orchestrators log a false result and move on.
type Dispatcher interface {
	Send(ctx context.Context, n models.Notification) bool
}

// SESService and SNSService mirror the AWS client methods for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ContactLookup resolves a user id to email and phone.
type ContactLookup interface {
	Contact(ctx context.Context, userID string) (email, phone string, err error)
}

type AWSDispatcher struct {
	ses       SESService
	sns       SNSService
	contacts  ContactLookup
	templates *registry.TemplateRegistry
	fromEmail string
	logger    logger.Logger
}

func NewAWSDispatcher(sesClient SESService, snsClient SNSService, contacts ContactLookup, templates *registry.TemplateRegistry, fromEmail string, log logger.Logger) *AWSDispatcher {
	return &AWSDispatcher{
		ses:       sesClient,
		sns:       snsClient,
		contacts:  contacts,
		templates: templates,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// Send delivers one notification over the channel the kind calls for. The
// kind switch is exhaustive over models.NotificationKind; an unknown kind
// is a programming error and is dropped with a log line.
func (d *AWSDispatcher) Send(ctx context.Context, n models.Notification) bool {
	switch n.Kind {
	case models.NotifyApplicationSubmitted,
		models.NotifyApplicationApproved,
		models.NotifyApplicationRejected,
		models.NotifyApplicationCancelled:
	default:
		d.logger.Error("unknown notification kind", map[string]interface{}{
			"kind": string(n.Kind),
		})
		metrics.NotificationsSent.WithLabelValues(string(n.Kind), "dropped").Inc()
		return false
	}

	email, phone, err := d.contacts.Contact(ctx, n.RecipientID)
	if err != nil {
		d.logger.Warn("recipient contact not found", map[string]interface{}{
			"recipientId": n.RecipientID,
			"error":       err.Error(),
		})
		metrics.NotificationsSent.WithLabelValues(string(n.Kind), "failed").Inc()
		return false
	}

	title, content := n.Title, n.Content
	if d.templates != nil {
		if tpl, err := d.templates.Find(string(n.Kind)); err == nil {
			data := map[string]string{
				"title":   n.Title,
				"content": n.Content,
				"link":    n.Link,
			}
			title = registry.Render(tpl.Subject, data)
			content = registry.Render(tpl.Body, data)
		}
	}

	var sent bool
	switch n.Channel {
	case "sms":
		sent = d.sendSMS(ctx, phone, content)
	default:
		sent = d.sendEmail(ctx, email, title, content)
	}

	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	metrics.NotificationsSent.WithLabelValues(string(n.Kind), outcome).Inc()
	return sent
}

func (d *AWSDispatcher) sendEmail(ctx context.Context, to, subject, body string) bool {
	if to == "" {
		return false
	}
	_, err := d.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(d.fromEmail),
	})
	if err != nil {
		d.logger.Error("email send failed", map[string]interface{}{
			"error": err.Error(),
			"email": to,
		})
		return false
	}
	return true
}

func (d *AWSDispatcher) sendSMS(ctx context.Context, to, message string) bool {
	if to == "" {
		return false
	}
	_, err := d.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	if err != nil {
		d.logger.Error("SMS send failed", map[string]interface{}{
			"error": err.Error(),
			"phone": to,
		})
		return false
	}
	return true
}
