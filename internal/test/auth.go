package test

import (
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	pkgAuth "github.com/polkiloo/receiptwatch/internal/pkg/auth"
)

// StrategyStub issues and parses tokens via function overrides.
type StrategyStub struct {
	IssueFn func(model.Principal) (string, error)
	ParseFn func(string) (model.Principal, error)
	NameVal string
}

// IssueToken returns deterministic tokens for tests.
func (s StrategyStub) IssueToken(p model.Principal) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(p)
	}
	return "token", nil
}

// ParseToken parses previously issued token strings.
func (s StrategyStub) ParseToken(token string) (model.Principal, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return model.Principal{UserID: 1, Email: "user@example.com"}, nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

// TokenParserStub implements middleware token parsing contract.
type TokenParserStub struct {
	Principal model.Principal
	Err       error
	ParseFn   func(string) (model.Principal, error)
}

// ParseToken either delegates to override or returns predefined result.
func (s TokenParserStub) ParseToken(token string) (model.Principal, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	if s.Err != nil {
		return model.Principal{}, s.Err
	}
	return s.Principal, nil
}

var _ pkgAuth.Strategy = StrategyStub{}
