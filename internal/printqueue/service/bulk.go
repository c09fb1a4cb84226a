package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/strings"
)

// Outcome is the per-item result of a print attempt.
type Outcome string

const (
	OutcomePrinted        Outcome = "printed"
	OutcomeAlreadyPrinted Outcome = "already_printed"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeFailed         Outcome = "failed"
)

type BulkResult struct {
	ID      id.QueueItemID `json:"id"`
	Outcome Outcome        `json:"outcome"`
	Error   string         `json:"error,omitempty"`
}

type BulkReport struct {
	Results []BulkResult `json:"results"`
	Printed int          `json:"printed"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
}

// MarkPrintedBulk attempts every id even when some fail. Duplicate ids are
// attempted once. Results keep the order of the first occurrence.
func (s *Service) MarkPrintedBulk(ctx context.Context, itemIDs []id.QueueItemID, operatorID id.UserID) (*BulkReport, error) {
	if operatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "operator id is required")
	}
	itemIDs = strings.Unique(itemIDs)
	if len(itemIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one print item id is required")
	}

	results := make([]BulkResult, len(itemIDs))
	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, itemID := range itemIDs {
		g.Go(func() error {
			results[i] = s.markOne(ctx, itemID, operatorID)
			return nil
		})
	}
	_ = g.Wait()

	report := &BulkReport{Results: results}
	for _, r := range results {
		switch r.Outcome {
		case OutcomePrinted:
			report.Printed++
		case OutcomeAlreadyPrinted:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	s.logger.InfoContext(ctx, "bulk print recorded",
		"operator_id", operatorID.String(),
		"requested", len(itemIDs),
		"printed", report.Printed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *Service) markOne(ctx context.Context, itemID id.QueueItemID, operatorID id.UserID) BulkResult {
	result := BulkResult{ID: itemID}
	_, err := s.MarkPrinted(ctx, itemID, operatorID)
	switch {
	case err == nil:
		result.Outcome = OutcomePrinted
	case errors.Is(err, ErrAlreadyPrinted):
		result.Outcome = OutcomeAlreadyPrinted
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		result.Outcome = OutcomeNotFound
		result.Error = dErrors.MessageOf(err)
	default:
		result.Outcome = OutcomeFailed
		result.Error = dErrors.MessageOf(err)
	}
	return result
}
