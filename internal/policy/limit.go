package policy

// Limit is a spending ceiling that is either a concrete amount or unbounded.
// Sovereign roles carry the unbounded value, never a sentinel number, so a
// careless comparison can't accidentally cap them.
type Limit struct {
	bounded bool
	value   int64
}

// Unbounded returns the limit that allows any amount.
func Unbounded() Limit { return Limit{} }

// LimitOf returns a concrete ceiling.
func LimitOf(v int64) Limit { return Limit{bounded: true, value: v} }

// IsUnbounded reports whether the limit allows any amount.
func (l Limit) IsUnbounded() bool { return !l.bounded }

// Value returns the concrete ceiling and whether one exists.
func (l Limit) Value() (int64, bool) { return l.value, l.bounded }

// Allows reports whether amount fits under the limit.
func (l Limit) Allows(amount int64) bool {
	return !l.bounded || amount <= l.value
}

// Tighten returns the stricter of l and a proposed concrete ceiling.
// Non-positive proposals are ignored.
func (l Limit) Tighten(proposed int64) Limit {
	if proposed <= 0 {
		return l
	}
	if !l.bounded || proposed < l.value {
		return LimitOf(proposed)
	}
	return l
}
