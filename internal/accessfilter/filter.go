// Package accessfilter projects swap records into role-appropriate views.
// It is a pure projection: the underlying record and log are never mutated.
package accessfilter

import (
	"time"

	"fedbridge/internal/fees"
	"fedbridge/internal/policy"
	"fedbridge/internal/swap"
)

// Level is the redaction tier applied to a swap's externally visible detail.
type Level string

const (
	LevelFull    Level = "full"
	LevelLimited Level = "limited"
	LevelBasic   Level = "basic"
)

// ForRole maps a caller role to its access tier. Unknown roles get the most
// redacted view.
func ForRole(r policy.Role) Level {
	switch r {
	case policy.RoleAdult, policy.RoleSteward, policy.RoleGuardian:
		return LevelFull
	case policy.RolePrivate:
		return LevelLimited
	default:
		return LevelBasic
	}
}

// View is the redacted response shape. Omitted fields marshal away so a
// basic view carries no trace of what was stripped.
type View struct {
	SwapID              string           `json:"swap_id"`
	Amount              int64            `json:"amount"`
	Status              swap.Status      `json:"status"`
	CreatedAt           time.Time        `json:"created_at"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	SourceProtocol      string           `json:"source_protocol,omitempty"`
	DestinationProtocol string           `json:"destination_protocol,omitempty"`
	SourceAccount       string           `json:"source_account,omitempty"`
	DestinationAccount  string           `json:"destination_account,omitempty"`
	Fees                *fees.Breakdown  `json:"fees,omitempty"`
	Kind                string           `json:"kind,omitempty"`
	Purpose             string           `json:"purpose,omitempty"`
	RequiresApproval    bool             `json:"requires_approval"`
	ApprovedBy          string           `json:"approved_by,omitempty"`
	NeedsReconciliation bool             `json:"needs_reconciliation,omitempty"`
	Log                 []swap.LogEntry  `json:"log,omitempty"`
}

// Filter builds the redacted view of a record and its log for a tier.
//
//	full:    complete record and full log.
//	limited: id, amount, status, timestamps, protocol tags; log reduced to
//	         the confirmation entry, or the latest entry if not confirmed.
//	basic:   limited minus protocol tags and fees; empty log.
func Filter(record *swap.Record, log []swap.LogEntry, level Level) View {
	view := View{
		SwapID:           record.SwapID,
		Amount:           record.Amount,
		Status:           record.Status,
		CreatedAt:        record.CreatedAt,
		RequiresApproval: record.RequiresApproval,
	}
	if record.CompletedAt != nil {
		t := *record.CompletedAt
		view.CompletedAt = &t
	}

	switch level {
	case LevelFull:
		breakdown := record.Fees
		view.SourceProtocol = string(record.SourceProtocol)
		view.DestinationProtocol = string(record.DestinationProtocol)
		view.SourceAccount = record.SourceAccount
		view.DestinationAccount = record.DestinationAccount
		view.Fees = &breakdown
		view.Kind = string(record.Kind)
		view.Purpose = record.Purpose
		view.ApprovedBy = record.ApprovedBy
		view.NeedsReconciliation = record.NeedsReconciliation
		view.Log = append([]swap.LogEntry(nil), log...)
	case LevelLimited:
		view.SourceProtocol = string(record.SourceProtocol)
		view.DestinationProtocol = string(record.DestinationProtocol)
		if entry, ok := summaryEntry(log); ok {
			view.Log = []swap.LogEntry{entry}
		}
	default:
		// basic: nothing further.
	}
	return view
}

// summaryEntry picks the confirmation entry, or the latest entry when the
// swap has not confirmed.
func summaryEntry(log []swap.LogEntry) (swap.LogEntry, bool) {
	if len(log) == 0 {
		return swap.LogEntry{}, false
	}
	for _, entry := range log {
		if entry.StepName == swap.StatusConfirmation {
			return entry, true
		}
	}
	return log[len(log)-1], true
}
