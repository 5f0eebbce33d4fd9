package model

import "time"

// RawText is a received message body handed to extraction. It is never mutated.
type RawText struct {
	SourceID   string `validate:"max=255"`
	Sender     string `validate:"max=320"`
	Subject    string `validate:"max=1000"`
	Body       string `validate:"required,max=1048576"`
	ReceivedAt time.Time
}
