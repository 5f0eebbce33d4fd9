package usecase

import (
	"context"
	"errors"
	"log/slog"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/domain/repository"
	"github.com/polkiloo/receiptwatch/internal/metrics"
	"github.com/polkiloo/receiptwatch/internal/policy"
)

// Ingest results reported to metrics.
const (
	IngestCreated        = "created"
	IngestDuplicate      = "duplicate"
	IngestManualRequired = "manual_required"
	IngestInvalid        = "invalid"
	IngestFailed         = "error"
	IngestManual         = "manual"
)

// Extractor turns raw text into a candidate.
type Extractor interface {
	Extract(text model.RawText) model.Candidate
}

// ReceiptUseCase runs the extract -> finalize -> save pipeline.
type ReceiptUseCase struct {
	extractor Extractor
	policies  policy.MerchantPolicyStore
	orders    repository.OrderRepository
	logger    *slog.Logger
}

// NewReceiptUseCase constructs ReceiptUseCase.
func NewReceiptUseCase(extractor Extractor, policies policy.MerchantPolicyStore, orders repository.OrderRepository, logger *slog.Logger) *ReceiptUseCase {
	return &ReceiptUseCase{extractor: extractor, policies: policies, orders: orders, logger: logger}
}

// Extract is a dry run: it returns the candidate without persisting anything.
func (u *ReceiptUseCase) Extract(raw model.RawText) (model.Candidate, error) {
	if err := validateInput(raw); err != nil {
		return model.Candidate{}, err
	}
	return u.extractor.Extract(raw), nil
}

// Ingest extracts and finalizes raw for the principal and stores the order.
// When the order date cannot be found it returns ErrExtractionFailed together
// with the candidate so the caller can ask for manual entry.
func (u *ReceiptUseCase) Ingest(ctx context.Context, principal model.Principal, raw model.RawText) (*model.Order, model.Candidate, error) {
	if err := validateInput(raw); err != nil {
		metrics.RecordIngest(IngestInvalid)
		return nil, model.Candidate{}, err
	}

	candidate := u.extractor.Extract(raw)
	order, err := policy.Finalize(candidate, u.policies)
	if err != nil {
		if errors.Is(err, domainErrors.ErrExtractionFailed) {
			metrics.RecordIngest(IngestManualRequired)
			u.logger.Info("receipt needs manual entry",
				slog.Int64("user_id", principal.UserID),
				slog.String("source_id", raw.SourceID),
			)
			return nil, candidate, err
		}
		metrics.RecordIngest(IngestFailed)
		return nil, candidate, err
	}

	order.UserID = principal.UserID
	order.ContactEmail = principal.Email
	if err := u.orders.Save(ctx, &order); err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			metrics.RecordIngest(IngestDuplicate)
		} else {
			metrics.RecordIngest(IngestFailed)
		}
		return nil, candidate, err
	}

	metrics.RecordIngest(IngestCreated)
	u.logger.Info("receipt ingested",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", order.UserID),
		slog.String("merchant", order.MerchantName),
		slog.String("deadline", order.ReturnDeadline.Format("2006-01-02")),
		slog.Bool("needs_review", order.NeedsReview),
	)
	return &order, candidate, nil
}
