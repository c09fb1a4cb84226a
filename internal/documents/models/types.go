package models

import (
	"strings"

	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

// Type is the closed set of documents the portal issues.
type Type string

const (
	TypePassport         Type = "passport"
	TypeNationalID       Type = "national_id"
	TypeBirthCertificate Type = "birth_certificate"
	TypeDriverLicense    Type = "driver_license"
)

// TypeRules holds everything that varies by document type.
type TypeRules struct {
	YearsValid  int
	DisplayName string
	// Prefix starts every document number of this type.
	Prefix string
}

// Birth certificates do not expire in practice; a century stands in for that.
var typeRules = map[Type]TypeRules{
	TypePassport:         {YearsValid: 10, DisplayName: "Passport", Prefix: "PP"},
	TypeNationalID:       {YearsValid: 5, DisplayName: "National ID", Prefix: "NI"},
	TypeBirthCertificate: {YearsValid: 100, DisplayName: "Birth Certificate", Prefix: "BC"},
	TypeDriverLicense:    {YearsValid: 5, DisplayName: "Driver License", Prefix: "DL"},
}

// serviceTypes maps catalog services to the document they produce.
var serviceTypes = map[id.ServiceID]Type{
	1: TypePassport,
	2: TypeNationalID,
	3: TypeBirthCertificate,
	4: TypeDriverLicense,
}

func (t Type) Rules() (TypeRules, bool) {
	rules, ok := typeRules[t]
	return rules, ok
}

func (t Type) IsValid() bool {
	_, ok := typeRules[t]
	return ok
}

// DisplayName falls back to the raw value for unknown types.
func (t Type) DisplayName() string {
	if rules, ok := typeRules[t]; ok {
		return rules.DisplayName
	}
	return string(t)
}

func (t Type) String() string { return string(t) }

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown document type")
	}
	return t, nil
}

// TypeForService resolves the document type a service issues without touching
// storage.
func TypeForService(serviceID id.ServiceID) (Type, bool) {
	t, ok := serviceTypes[serviceID]
	return t, ok
}

// Types lists every document type in a stable order.
func Types() []Type {
	return []Type{TypePassport, TypeNationalID, TypeBirthCertificate, TypeDriverLicense}
}
