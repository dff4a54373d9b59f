package catalog

import (
	"context"
	"errors"
)

// ErrInstitutionNotFound is returned when an institution name cannot be
// resolved against the directory listing.
var ErrInstitutionNotFound = errors.New("institution not found")

// Institution is one directory entry. Names carries the display-name
// variants; the first entry is the primary name used for resolution.
type Institution struct {
	ID    int               `json:"id"`
	Names []InstitutionName `json:"names"`
}

// InstitutionName is a single display-name variant.
type InstitutionName struct {
	Name string `json:"name"`
}

// PrimaryName returns the first name variant, or "" when none exist.
func (i Institution) PrimaryName() string {
	if len(i.Names) == 0 {
		return ""
	}
	return i.Names[0].Name
}

// Agreement identifies one partner institution holding an active
// agreement with the receiving institution. The upstream listing may
// repeat the same partner.
type Agreement struct {
	InstitutionParentID int `json:"institutionParentId"`
}

// Report is one major-agreement record: a human-readable major label and
// the artifact key of the agreement document.
type Report struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// Directory resolves institutions and enumerates transfer agreements.
type Directory interface {
	// Institutions lists every institution in the catalog.
	Institutions(ctx context.Context) ([]Institution, error)

	// Agreements lists the partner institutions holding an agreement
	// with the given receiving institution.
	Agreements(ctx context.Context, receivingID int) ([]Agreement, error)

	// MajorReports lists the major-agreement records for one
	// (receiving, sending) institution pair.
	MajorReports(ctx context.Context, receivingID, sendingID int) ([]Report, error)
}
