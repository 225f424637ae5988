// Package fees computes the fee breakdown for cross-protocol operations.
// All arithmetic is integer math on the smallest currency unit; the rates
// below are expressed as divisors of the amount.
package fees

import "fedbridge/internal/policy"

// Kind selects the bridge rate: swaps pay a lower floor-rounded rate than
// cross-mint payments.
type Kind string

const (
	KindSwap    Kind = "swap"
	KindPayment Kind = "payment"
)

// Breakdown is the itemized fee for an operation. Frozen once the swap
// reaches atomic execution.
type Breakdown struct {
	Network int64 `json:"network"`
	Bridge  int64 `json:"bridge"`
	Total   int64 `json:"total"`
}

// Calculate returns the fee breakdown for amount under the caller's role.
// Network fee: ceil(amount * 0.0001).
// Bridge fee:  floor(amount * 0.001) for swaps, ceil(amount * 0.002) for
// payments; sovereign roles pay half the bridge rate under the identical
// rounding rule so reported fees stay consistent between tiers.
func Calculate(amount int64, role policy.Role, kind Kind) Breakdown {
	if amount <= 0 {
		return Breakdown{}
	}

	network := ceilDiv(amount, 10_000)

	var bridge int64
	switch {
	case kind == KindPayment && role.Sovereign():
		bridge = ceilDiv(amount, 1_000)
	case kind == KindPayment:
		bridge = ceilDiv(2*amount, 1_000)
	case role.Sovereign():
		bridge = amount / 2_000
	default:
		bridge = amount / 1_000
	}

	return Breakdown{
		Network: network,
		Bridge:  bridge,
		Total:   network + bridge,
	}
}

func ceilDiv(n, d int64) int64 {
	return (n + d - 1) / d
}
