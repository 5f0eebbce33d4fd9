package dto

import (
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// ReceiptRequest carries a received message for extraction.
type ReceiptRequest struct {
	SourceID   string    `json:"source_id"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// RawText converts the request to the extraction input.
func (r ReceiptRequest) RawText() model.RawText {
	return model.RawText{
		SourceID:   r.SourceID,
		Sender:     r.Sender,
		Subject:    r.Subject,
		Body:       r.Body,
		ReceivedAt: r.ReceivedAt,
	}
}

// ManualEntryRequiredResponse is returned when a receipt lacks an order date.
type ManualEntryRequiredResponse struct {
	Error     string          `json:"error"`
	Candidate model.Candidate `json:"candidate"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}
