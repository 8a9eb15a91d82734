package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
)

// Mailer composes the account emails students receive.
type Mailer struct {
	sender  Sender
	appName string
}

func NewMailer(sender Sender, appName string) *Mailer {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		appName = "CodeCamp"
	}
	return &Mailer{sender: sender, appName: appName}
}

func (m *Mailer) SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose, ttl time.Duration) error {
	if m == nil || m.sender == nil {
		return errors.New("mailer not configured")
	}
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var subject, action string
	switch purpose {
	case domain.OTPPurposeChange:
		subject = "Your password change code"
		action = "change your password"
	default:
		subject = "Your password reset code"
		action = "reset your password"
	}
	body := fmt.Sprintf("Use the following code to %s: %s\n\nThe code expires in %d minutes. After 5 wrong attempts you will have to wait 30 minutes before trying again.\n\nIf you did not request this, ignore this email.",
		action, code, minutes)

	return m.sender.Send(ctx, Message{
		To:      email,
		Subject: fmt.Sprintf("[%s] %s", m.appName, subject),
		Body:    body,
	})
}

func (m *Mailer) SendTemporaryCredentials(ctx context.Context, email, fullName, enrollmentNumber, password string) error {
	if m == nil || m.sender == nil {
		return errors.New("mailer not configured")
	}
	name := strings.TrimSpace(fullName)
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf("Hi %s,\n\nAn account has been created for you.\n\nEnrollment number: %s\nTemporary password: %s\n\nYou will be asked to choose a new password the first time you sign in.",
		name, enrollmentNumber, password)

	return m.sender.Send(ctx, Message{
		To:      email,
		Subject: fmt.Sprintf("[%s] Your student account", m.appName),
		Body:    body,
	})
}
