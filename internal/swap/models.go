package swap

import (
	"time"

	"fedbridge/internal/fees"
	"fedbridge/internal/mintregistry"
)

// Status is a swap's position in the forward-only lifecycle.
type Status string

const (
	StatusValidation         Status = "validation"
	StatusSourceLock         Status = "source_lock"
	StatusDestinationPrepare Status = "destination_prepare"
	StatusAtomicExecution    Status = "atomic_execution"
	StatusConfirmation       Status = "confirmation"
	StatusFailed             Status = "failed"
)

// statusRank orders the normal completion path. Failed sits outside the
// ranking: it is reachable from any non-terminal state but never left.
var statusRank = map[Status]int{
	StatusValidation:         1,
	StatusSourceLock:         2,
	StatusDestinationPrepare: 3,
	StatusAtomicExecution:    4,
	StatusConfirmation:       5,
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusConfirmation || s == StatusFailed
}

// CanAdvance reports whether a transition from s to next is legal: strictly
// forward along the completion path with no skipped states, or into failed
// from any non-terminal state.
func (s Status) CanAdvance(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// Record is the durable swap entity. SwapID is a privacy hash, unique and
// immutable once assigned; Amount never changes after creation; Status only
// advances forward through the transition graph.
type Record struct {
	SwapID              string                `json:"swap_id"`
	SourceProtocol      mintregistry.Protocol `json:"source_protocol"`
	DestinationProtocol mintregistry.Protocol `json:"destination_protocol"`
	SourceAccount       string                `json:"source_account"`
	DestinationAccount  string                `json:"destination_account"`
	Amount              int64                 `json:"amount"`
	Fees                fees.Breakdown        `json:"fees"`
	Kind                fees.Kind             `json:"kind"`
	Status              Status                `json:"status"`
	Purpose             string                `json:"purpose,omitempty"`
	RequiresApproval    bool                  `json:"requires_approval"`
	ApprovedBy          string                `json:"approved_by,omitempty"`
	NeedsReconciliation bool                  `json:"needs_reconciliation"`
	SpendReserved       bool                  `json:"-"`
	LockHandle          string                `json:"-"`
	Steps               int                   `json:"-"`
	CreatedAt           time.Time             `json:"created_at"`
	CompletedAt         *time.Time            `json:"completed_at,omitempty"`
}

// Clone returns a copy so stores can hand out records without aliasing
// their internals.
func (r *Record) Clone() *Record {
	c := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// StepStatus is the outcome recorded on a single log entry.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepPending   StepStatus = "pending"
	StepFailed    StepStatus = "failed"
)

// LogEntry is one immutable line of a swap's ordered transition history.
// Step numbers are strictly increasing from 1.
type LogEntry struct {
	SwapID    string     `json:"-"`
	Step      int        `json:"step"`
	StepName  Status     `json:"step_name"`
	Status    StepStatus `json:"status"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// Request is the inbound swap submission. Account identity comes from the
// authenticated session, not from this value; Role here is only
// cross-checked against the session (the session wins on conflict).
type Request struct {
	SourceEndpoint      string `json:"source_endpoint"`
	DestinationEndpoint string `json:"destination_endpoint"`
	// SourceProtocol / DestinationProtocol override classification when
	// set. Lightning can only arrive this way: it has no mint endpoint
	// to classify.
	SourceProtocol      string `json:"source_protocol,omitempty"`
	DestinationProtocol string `json:"destination_protocol,omitempty"`
	Amount              int64  `json:"amount"`
	// Kind selects the fee schedule: "swap" (default) or "payment" for
	// cross-mint payments.
	Kind                string `json:"kind,omitempty"`
	Purpose             string `json:"purpose,omitempty"`
	Role                string `json:"role,omitempty"`
	ApprovalToken       string `json:"approval_token,omitempty"`
}

// ApprovalDecision is an approver's verdict on a pending swap.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "approve"
	DecisionDeny    ApprovalDecision = "deny"
)

// ApprovalEvent is the asynchronous external input that unblocks a swap
// waiting in validation.
type ApprovalEvent struct {
	ApproverHandle string           `json:"-"`
	Decision       ApprovalDecision `json:"decision"`
}
