package policy

// OperationKind distinguishes outbound spends from inbound receives. Only
// outbound spend is policed; inbound value is always acceptable.
type OperationKind string

const (
	OpSpend   OperationKind = "spend"
	OpReceive OperationKind = "receive"
)

// Limits carries the dependent-role ceilings in the smallest currency unit.
type Limits struct {
	DailySpend        int64
	PerTransaction    int64
	ApprovalThreshold int64
}

// DefaultLimits are applied when the caller proposes nothing tighter.
var DefaultLimits = Limits{
	DailySpend:        50_000,
	PerTransaction:    25_000,
	ApprovalThreshold: 10_000,
}

// Decision is the ephemeral outcome of a sovereignty evaluation. It is never
// persisted.
type Decision struct {
	Authorized       bool
	RequiresApproval bool
	EffectiveLimit   Limit
}

// Engine evaluates whether a requested amount is authorized for a role.
// It is pure: no I/O, no clock, no stored state. Daily-total accounting is
// enforced separately by the spendtotals store under a per-account lock.
type Engine struct {
	limits Limits
}

// NewEngine builds an engine with the given dependent-role ceilings. Zero
// fields fall back to the defaults.
func NewEngine(limits Limits) *Engine {
	if limits.DailySpend <= 0 {
		limits.DailySpend = DefaultLimits.DailySpend
	}
	if limits.PerTransaction <= 0 {
		limits.PerTransaction = DefaultLimits.PerTransaction
	}
	if limits.ApprovalThreshold <= 0 {
		limits.ApprovalThreshold = DefaultLimits.ApprovalThreshold
	}
	return &Engine{limits: limits}
}

// Limits returns the configured dependent-role ceilings.
func (e *Engine) Limits() Limits { return e.limits }

// Evaluate applies Individual Wallet Sovereignty. Precondition: amount > 0
// (the caller layer rejects non-positive amounts before reaching here).
//
// Rule order (fail-closed):
//  1. Unknown role: fully unauthorized.
//  2. Sovereign role: unlimited, no approval, for spend and receive alike.
//  3. Dependent receive: always authorized, never needs approval.
//  4. Dependent spend: capped by the per-transaction ceiling; approval is
//     required above the threshold independent of authorization.
func (e *Engine) Evaluate(role Role, amount int64, kind OperationKind) Decision {
	return e.EvaluateWithLimits(role, amount, kind, Limits{})
}

// EvaluateWithLimits is Evaluate with caller-proposed ceilings. Proposals can
// only tighten the configured limits, never loosen them.
func (e *Engine) EvaluateWithLimits(role Role, amount int64, kind OperationKind, proposed Limits) Decision {
	if !role.Known() {
		return Decision{Authorized: false, RequiresApproval: false, EffectiveLimit: LimitOf(0)}
	}

	if role.Sovereign() {
		return Decision{Authorized: true, RequiresApproval: false, EffectiveLimit: Unbounded()}
	}

	if kind == OpReceive {
		return Decision{Authorized: true, RequiresApproval: false, EffectiveLimit: Unbounded()}
	}

	limit := LimitOf(e.limits.PerTransaction).Tighten(proposed.PerTransaction)
	threshold := e.limits.ApprovalThreshold
	if proposed.ApprovalThreshold > 0 && proposed.ApprovalThreshold < threshold {
		threshold = proposed.ApprovalThreshold
	}

	return Decision{
		Authorized:       limit.Allows(amount),
		RequiresApproval: amount > threshold,
		EffectiveLimit:   limit,
	}
}
