package store

import (
	"sort"

	"govportal/internal/documents/models"
)

func sortByIssueDesc(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].IssueDate.After(docs[j].IssueDate)
	})
}
