package domain

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "govportal/pkg/domain-errors"
)

// UserID identifies a portal user. Holders are identified by their national
// identifier; staff (reviewers, verifiers, print operators) by their account id.
// Both live in the users table, so one type covers them.
type UserID string

const maxUserIDLength = 64

func (id UserID) String() string { return string(id) }

func (id UserID) IsNil() bool { return id == "" }

// ParseUserID validates an externally supplied user identifier.
func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if len(s) > maxUserIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id is too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "user id contains invalid characters")
		}
	}
	return UserID(s), nil
}

// ServiceID identifies a catalog service. Catalog ids are small integers.
type ServiceID int

func (id ServiceID) String() string { return strconv.Itoa(int(id)) }

// ParseServiceID parses a positive catalog id.
func ParseServiceID(s string) (ServiceID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid service id")
	}
	return ServiceID(n), nil
}

type (
	ApplicationID  uuid.UUID
	DocumentID     uuid.UUID
	UploadID       uuid.UUID
	QueueItemID    uuid.UUID
	NotificationID uuid.UUID
)

func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id UploadID) String() string       { return uuid.UUID(id).String() }
func (id QueueItemID) String() string    { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UploadID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id QueueItemID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application id")
	return ApplicationID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	return DocumentID(u), err
}

func ParseUploadID(s string) (UploadID, error) {
	u, err := parseUUID(s, "upload id")
	return UploadID(u), err
}

func ParseQueueItemID(s string) (QueueItemID, error) {
	u, err := parseUUID(s, "queue item id")
	return QueueItemID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

// uuidTextLength is the canonical 8-4-4-4-12 form; other encodings uuid.Parse
// accepts (urn, braces, bare hex) are rejected at the boundary.
const uuidTextLength = 36

func parseUUID(s, label string) (uuid.UUID, error) {
	if len(s) != uuidTextLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func (id ApplicationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id UploadID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id QueueItemID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(b []byte) error {
	parsed, err := ParseApplicationID(string(b))
	*id = parsed
	return err
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	*id = parsed
	return err
}

func (id *UploadID) UnmarshalText(b []byte) error {
	parsed, err := ParseUploadID(string(b))
	*id = parsed
	return err
}

func (id *QueueItemID) UnmarshalText(b []byte) error {
	parsed, err := ParseQueueItemID(string(b))
	*id = parsed
	return err
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := ParseNotificationID(string(b))
	*id = parsed
	return err
}

// NewApplicationID and friends mint random record ids.
func NewApplicationID() ApplicationID   { return ApplicationID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }
func NewUploadID() UploadID             { return UploadID(uuid.New()) }
func NewQueueItemID() QueueItemID       { return QueueItemID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
