package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	docModels "govportal/internal/documents/models"
	id "govportal/pkg/domain"
)

// Strategy looks up the holder's most recent active document of a type. A nil
// document with a nil error means the holder has none.
type Strategy interface {
	Name() string
	LatestActive(ctx context.Context, holderID id.UserID, docType docModels.Type) (*docModels.Document, error)
}

// DocumentLookup is the registry read the primary strategy delegates to.
type DocumentLookup interface {
	LatestActive(ctx context.Context, holderID id.UserID, docType docModels.Type) (*docModels.Document, error)
}

// StoreStrategy reads the document registry directly.
type StoreStrategy struct {
	documents DocumentLookup
}

func NewStoreStrategy(documents DocumentLookup) *StoreStrategy {
	return &StoreStrategy{documents: documents}
}

func (s *StoreStrategy) Name() string { return "store" }

func (s *StoreStrategy) LatestActive(ctx context.Context, holderID id.UserID, docType docModels.Type) (*docModels.Document, error) {
	return s.documents.LatestActive(ctx, holderID, docType)
}

// RemoteStrategy asks the hosted eligibility function, used when the primary
// read path is unreachable.
type RemoteStrategy struct {
	client *resty.Client
}

type eligibilityRequest struct {
	HolderID     id.UserID      `json:"holder_id"`
	DocumentType docModels.Type `json:"document_type"`
}

type eligibilityResponse struct {
	Found    bool                `json:"found"`
	Document *docModels.Document `json:"document,omitempty"`
}

func NewRemoteStrategy(baseURL string, timeout time.Duration) *RemoteStrategy {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &RemoteStrategy{client: client}
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) LatestActive(ctx context.Context, holderID id.UserID, docType docModels.Type) (*docModels.Document, error) {
	var out eligibilityResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(eligibilityRequest{HolderID: holderID, DocumentType: docType}).
		SetResult(&out).
		Post("/existing-document")
	if err != nil {
		return nil, fmt.Errorf("eligibility call: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("eligibility call: unexpected status %d", resp.StatusCode())
	}
	if !out.Found || out.Document == nil {
		return nil, nil
	}
	return out.Document, nil
}
