package auth

import (
	"time"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// Strategy issues and verifies tokens asserting a Principal.
type Strategy interface {
	IssueToken(p model.Principal) (string, error)
	ParseToken(token string) (model.Principal, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
