package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// CaseID identifies a support case. Cases are created by external ingestion;
// this system only reads them and writes derived assignments.
type CaseID string

// Case represents a support case record from the relational store
type Case struct {
	ID         CaseID
	Subject    string
	Issue      string
	Resolution string
	Status     types.CaseStatus
	Product    string // product-hierarchy reference, e.g. "HPE ProLiant DL380"
	CreatedAt  time.Time
	ResolvedAt time.Time
	UpdatedAt  time.Time
}

// SearchableText returns the lower-cased concatenation of the text fields
// the pattern detector matches keywords against.
func (c *Case) SearchableText() string {
	return strings.ToLower(c.Subject + " " + c.Issue)
}

// Validate checks the case has the fields the pipeline requires.
// Invalid cases are skipped per record, they never fail a whole batch.
func (c *Case) Validate() error {
	if c.ID == "" {
		return goerr.New("case ID is required")
	}
	if strings.TrimSpace(c.Subject) == "" && strings.TrimSpace(c.Issue) == "" {
		return goerr.New("case has no searchable text", goerr.V("caseID", c.ID))
	}
	if !c.Status.Normalize().IsValid() {
		return goerr.New("invalid case status", goerr.V("caseID", c.ID), goerr.V("status", c.Status))
	}
	return nil
}

// String returns the string representation of the case ID
func (id CaseID) String() string {
	return string(id)
}
