package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsappPrefix = "whatsapp:"

// TwilioSender sends WhatsApp messages through the Twilio REST API from the
// configured sender number.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

// NewTwilioSender creates a Twilio-backed sender.
func NewTwilioSender(log *slog.Logger, accountSID, authToken, phoneNumber string) *TwilioSender {
	if log == nil {
		log = slog.Default()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{
		client: client,
		from:   phoneNumber,
		logger: log.With(slog.String("service", "twilio")),
	}
}

// Send delivers one message body to the recipient phone number. The Twilio
// client manages its own request deadlines; ctx is accepted for interface
// symmetry.
func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &api.CreateMessageParams{}
	params.SetFrom(WhatsAppAddress(s.from))
	params.SetTo(WhatsAppAddress(to))
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}

// WhatsAppAddress ensures the transport-prefixed form of a phone number.
func WhatsAppAddress(phone string) string {
	if strings.HasPrefix(phone, whatsappPrefix) {
		return phone
	}
	return whatsappPrefix + phone
}

// StripWhatsAppPrefix returns the bare phone number from a transport
// identifier.
func StripWhatsAppPrefix(identifier string) string {
	return strings.TrimPrefix(identifier, whatsappPrefix)
}
