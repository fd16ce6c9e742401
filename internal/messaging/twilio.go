// Package messaging sends WhatsApp text and media messages via Twilio.
package messaging

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrDeliveryFailure is returned when the provider rejects a send.
var ErrDeliveryFailure = errors.New("message delivery failed")

// Gateway abstracts the outbound messaging channel. Both methods return the
// provider-assigned message SID; the delivery outcome arrives later through
// the status callback.
type Gateway interface {
	SendText(to, body string) (string, error)
	SendMedia(to, body, mediaURL string) (string, error)
}

type TwilioGateway struct {
	client         *twilio.RestClient
	from           string
	statusCallback string
}

// NewTwilioGateway creates a WhatsApp gateway. statusCallback is the public
// URL Twilio pushes delivery outcomes to; empty disables callbacks.
func NewTwilioGateway(accountSID, authToken, from, statusCallback string) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioGateway{
		client:         client,
		from:           from,
		statusCallback: statusCallback,
	}
}

func (g *TwilioGateway) SendText(to, body string) (string, error) {
	return g.send(to, body, "")
}

func (g *TwilioGateway) SendMedia(to, body, mediaURL string) (string, error) {
	return g.send(to, body, mediaURL)
}

func (g *TwilioGateway) send(to, body, mediaURL string) (string, error) {
	if !phoneRegex.MatchString(to) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, to)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + g.from)
	params.SetTo("whatsapp:" + to)
	params.SetBody(body)
	if mediaURL != "" {
		params.SetMediaUrl([]string{mediaURL})
	}
	if g.statusCallback != "" {
		params.SetStatusCallback(g.statusCallback)
	}

	resp, err := g.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("twilio send failed", "to", to, "error", err.Error())
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Info("whatsapp message sent", "to", to, "sid", sid, "media", mediaURL != "")
	return sid, nil
}
