package models

import (
	docModels "govportal/internal/documents/models"
	id "govportal/pkg/domain"
)

// Service is a citizen-facing catalog entry. Each service issues exactly one
// document type.
type Service struct {
	ID                id.ServiceID   `json:"id"`
	Name              string         `json:"name"`
	DocumentType      docModels.Type `json:"document_type"`
	RequiredDocuments []string       `json:"required_documents"`
	FeeCents          int            `json:"fee_cents"`
	ProcessingDays    int            `json:"processing_days"`
}

// User is the slice of a portal account the workflow snapshots.
type User struct {
	ID          id.UserID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// DefaultServices mirrors the seed migration for in-memory runs.
func DefaultServices() []Service {
	return []Service{
		{ID: 1, Name: "Passport", DocumentType: docModels.TypePassport, RequiredDocuments: []string{"photo", "national_id_copy"}, FeeCents: 5000, ProcessingDays: 10},
		{ID: 2, Name: "National ID", DocumentType: docModels.TypeNationalID, RequiredDocuments: []string{"photo", "birth_certificate_copy"}, FeeCents: 1500, ProcessingDays: 7},
		{ID: 3, Name: "Birth Certificate", DocumentType: docModels.TypeBirthCertificate, RequiredDocuments: []string{"hospital_record"}, FeeCents: 500, ProcessingDays: 5},
		{ID: 4, Name: "Driver License", DocumentType: docModels.TypeDriverLicense, RequiredDocuments: []string{"photo", "medical_certificate", "test_result"}, FeeCents: 3000, ProcessingDays: 14},
	}
}
