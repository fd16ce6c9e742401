package dto

import "time"

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type GatePassResponse struct {
	Status         string    `json:"status"`
	Outcome        string    `json:"outcome"`
	PassID         string    `json:"pass_id,omitempty"`
	ExpiryDate     time.Time `json:"expiry_date,omitempty"`
	WhatsAppNumber string    `json:"whatsapp_number,omitempty"`
	Delivery       string    `json:"delivery,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

type VerifyResponse struct {
	Status         string    `json:"status"`
	StudentID      string    `json:"student_id"`
	ExpiryDate     time.Time `json:"expiry_date"`
	WhatsAppNumber string    `json:"whatsapp_number"`
}

type ProfileResponse struct {
	Status  string  `json:"status"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	StudentID   string    `json:"student_id"`
	Firstname   string    `json:"firstname"`
	Lastname    string    `json:"lastname"`
	PhoneNumber string    `json:"phone_number"`
	LastUpdated time.Time `json:"last_updated"`
}

type NotificationResponse struct {
	Status   string  `json:"status"`
	Notified bool    `json:"notified"`
	Amount   float64 `json:"amount,omitempty"`
	Balance  float64 `json:"balance,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// InboundReply is the JSON body returned to the messaging provider for an
// incoming WhatsApp message.
type InboundReply struct {
	Reply string `json:"reply"`
}
