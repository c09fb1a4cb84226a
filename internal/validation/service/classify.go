package service

import (
	"fmt"
	"time"

	docModels "govportal/internal/documents/models"
	"govportal/internal/validation/models"
)

const dateLayout = "2006-01-02"

// classify turns the holder's latest active document into a verdict. Order
// matters: absent, expired, replacement, then deny.
func classify(req models.Request, docType docModels.Type, existing *docModels.Document, now time.Time) models.Result {
	name := docType.DisplayName()
	if existing == nil {
		return models.Result{
			CanProceed:  true,
			InfoMessage: fmt.Sprintf("No existing %s found. You may proceed with your application.", name),
		}
	}

	summary := models.NewExistingDocument(existing)
	if existing.IsExpired(now) {
		return models.Result{
			CanProceed: true,
			InfoMessage: fmt.Sprintf("Your previous %s expired on %s. You may reapply.",
				name, existing.ExpiryDate.Format(dateLayout)),
			ExistingDocument: summary,
		}
	}

	if req.IsReplacement {
		return models.Result{
			CanProceed:           true,
			IsReplacementAllowed: true,
			InfoMessage: fmt.Sprintf("Replacement request for your %s accepted. Reason: %s",
				name, req.ReplacementReason),
			ExistingDocument: summary,
		}
	}

	return models.Result{
		CanProceed: false,
		ErrorCode:  models.CodeDocumentExistsValid,
		ErrorMessage: fmt.Sprintf("You already have an active %s that %s. Please wait until it expires or submit a replacement request.",
			name, expiryPhrase(existing)),
		ExistingDocument: summary,
	}
}

func expiryPhrase(doc *docModels.Document) string {
	if doc.ExpiryDate == nil {
		return "never expires"
	}
	return "expires on " + doc.ExpiryDate.Format(dateLayout)
}

func failOpen(docType docModels.Type) models.Result {
	return models.Result{
		CanProceed: true,
		WarningMessage: fmt.Sprintf("We could not verify your existing document status. Please make sure you do not already hold an active %s before continuing.",
			docType.DisplayName()),
		Source: sourceFailOpen,
	}
}

func inputError(code models.Code, message string) models.Result {
	return models.Result{CanProceed: false, ErrorCode: code, ErrorMessage: message}
}
