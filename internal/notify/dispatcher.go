// internal/notify/dispatcher.go
// Package notify delivers application lifecycle notifications over SES email
// and SNS SMS. The dispatcher is invoked after a committed transition; every
// failure is reported to the caller for logging only, never for rollback.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"provider-workflow/internal/common/config"
	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// SESService and SNSService mirror the AWS client surface used here, so
// tests can substitute mocks.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	models.NotificationSubmitted: {
		subject: "Provider application received",
		body:    "Your provider application has been received and is awaiting review. We will let you know as soon as a decision is made.",
	},
	models.NotificationApproved: {
		subject: "Your provider application is approved",
		body:    "Congratulations! Your provider application has been approved. Your account now has provider access.",
	},
	models.NotificationRejected: {
		subject: "Provider application update",
		body:    "Your provider application was not approved. Reason: {{reason}}. You may reapply 30 days after the review date.",
	},
}

// Dispatcher sends lifecycle notifications. Recipient contact details are
// read from the users table at dispatch time.
type Dispatcher struct {
	cfg    config.NotificationConfig
	db     *sql.DB
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

// NewDispatcher creates a dispatcher on existing AWS clients.
func NewDispatcher(cfg config.NotificationConfig, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		db:     db,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// NotifySubmitted informs a user their application was received.
func (d *Dispatcher) NotifySubmitted(ctx context.Context, userID string) error {
	return d.send(ctx, userID, models.NotificationSubmitted, nil)
}

// NotifyApproved informs a user their application was approved.
func (d *Dispatcher) NotifyApproved(ctx context.Context, userID string) error {
	return d.send(ctx, userID, models.NotificationApproved, nil)
}

// NotifyRejected informs a user their application was rejected, including
// the reviewer's reason.
func (d *Dispatcher) NotifyRejected(ctx context.Context, userID, reason string) error {
	return d.send(ctx, userID, models.NotificationRejected, map[string]string{"reason": reason})
}

func (d *Dispatcher) send(ctx context.Context, userID, event string, data map[string]string) error {
	tmpl, ok := templates[event]
	if !ok {
		return fmt.Errorf("no template for event %s", event)
	}

	email, phone, err := d.recipientContact(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", userID, err)
	}

	subject := render(tmpl.subject, data)
	body := render(tmpl.body, data)
	notificationID := uuid.New().String()

	emailSent := false
	smsSent := false

	if d.cfg.Email.Enabled && email != "" {
		if err := d.sendEmail(ctx, email, subject, body); err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		emailSent = true
	}

	if d.cfg.SMS.Enabled && phone != "" {
		if err := d.sendSMS(ctx, phone, body); err != nil {
			return fmt.Errorf("send SMS: %w", err)
		}
		smsSent = true
	}

	status := models.NotificationStatusDisabled
	if emailSent || smsSent {
		status = models.NotificationStatusSent
	}

	d.logger.Info("notification dispatched", map[string]interface{}{
		"notificationId": notificationID,
		"event":          event,
		"recipientId":    userID,
		"status":         status,
		"sentAt":         time.Now().UTC().Format(time.RFC3339),
	})

	return nil
}

func (d *Dispatcher) recipientContact(ctx context.Context, userID string) (string, string, error) {
	var email string
	var phone sql.NullString

	err := d.db.QueryRowContext(ctx,
		`SELECT email, phone_number FROM users WHERE id = $1`, userID).Scan(&email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("user not found")
	}
	if err != nil {
		return "", "", err
	}

	return email, phone.String, nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := d.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(d.cfg.Email.FromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (d *Dispatcher) sendSMS(ctx context.Context, phone, body string) error {
	_, err := d.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(body),
	})
	return err
}

// render substitutes {{key}} placeholders.
func render(tmpl string, data map[string]string) string {
	out := tmpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}
