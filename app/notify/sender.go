package notify

import (
	"fmt"
	"net/smtp"

	"pricewatch/app/tracker"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server   string
	Port     int
	Address  string
	Password string
}

var _ tracker.Sender = (*EmailSender)(nil)

// EmailSender delivers notification intents as plain-text emails
type EmailSender struct {
	config SmtpConfig
}

func NewEmailSender(config SmtpConfig) *EmailSender {
	return &EmailSender{config: config}
}

func (s *EmailSender) Send(intent tracker.Intent) error {
	mail, err := s.compose(intent)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Address, s.config.Password, s.config.Server)
	if err := mail.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// compose builds the message for an intent without touching the network
func (s *EmailSender) compose(intent tracker.Intent) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Price Watch <%s>", s.config.Address)

	switch intent.Type {
	case tracker.IntentPriceTarget:
		mail.To = []string{intent.Alert.OwnerEmail}
		mail.Subject = fmt.Sprintf("Price drop: %s is now ₹%d", intent.Item.Title, intent.NewPrice)
		mail.Text = []byte(fmt.Sprintf(
			`%s has reached your target price.

Current price: ₹%d
Your target:   ₹%d

%s

This alert has been turned off. Create a new one to keep watching.`,
			intent.Item.Title, intent.NewPrice, intent.Alert.TargetPrice, intent.Item.URL))

	case tracker.IntentBackInStock:
		mail.To = []string{intent.Item.OwnerEmail}
		mail.Subject = fmt.Sprintf("Back in stock: %s", intent.Item.Title)
		mail.Text = []byte(fmt.Sprintf(
			`%s is available again.

Current price: ₹%d

%s`,
			intent.Item.Title, intent.Item.SalePrice, intent.Item.URL))

	default:
		return nil, fmt.Errorf("unknown notification type: %s", intent.Type)
	}

	return mail, nil
}
