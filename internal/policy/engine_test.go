package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fedbridge/pkg/domain-errors"
)

func TestEvaluate_SovereignInvariant(t *testing.T) {
	engine := NewEngine(Limits{})

	sovereign := []Role{RoleAdult, RoleSteward, RoleGuardian, RolePrivate}
	amounts := []int64{1, 10_000, 25_001, 50_001, 1_000_000_000}

	for _, role := range sovereign {
		for _, amount := range amounts {
			for _, kind := range []OperationKind{OpSpend, OpReceive} {
				decision := engine.Evaluate(role, amount, kind)
				assert.True(t, decision.Authorized, "role=%s amount=%d kind=%s", role, amount, kind)
				assert.False(t, decision.RequiresApproval, "role=%s amount=%d kind=%s", role, amount, kind)
				assert.True(t, decision.EffectiveLimit.IsUnbounded(), "role=%s amount=%d kind=%s", role, amount, kind)
			}
		}
	}
}

func TestEvaluate_DependentCeiling(t *testing.T) {
	engine := NewEngine(Limits{})

	t.Run("authorized tracks the per-transaction limit", func(t *testing.T) {
		decision := engine.Evaluate(RoleOffspring, 25_000, OpSpend)
		assert.True(t, decision.Authorized)

		decision = engine.Evaluate(RoleOffspring, 25_001, OpSpend)
		assert.False(t, decision.Authorized)

		limit, bounded := decision.EffectiveLimit.Value()
		require.True(t, bounded)
		assert.Equal(t, int64(25_000), limit)
	})

	t.Run("approval is independent of authorization", func(t *testing.T) {
		// Over the limit and over the threshold.
		decision := engine.Evaluate(RoleOffspring, 30_000, OpSpend)
		assert.False(t, decision.Authorized)
		assert.True(t, decision.RequiresApproval)

		// Under the limit but over the threshold.
		decision = engine.Evaluate(RoleOffspring, 15_000, OpSpend)
		assert.True(t, decision.Authorized)
		assert.True(t, decision.RequiresApproval)

		// Under both.
		decision = engine.Evaluate(RoleOffspring, 9_999, OpSpend)
		assert.True(t, decision.Authorized)
		assert.False(t, decision.RequiresApproval)

		// Exactly at the threshold does not require approval.
		decision = engine.Evaluate(RoleOffspring, 10_000, OpSpend)
		assert.True(t, decision.Authorized)
		assert.False(t, decision.RequiresApproval)
	})

	t.Run("receiving is always authorized", func(t *testing.T) {
		decision := engine.Evaluate(RoleOffspring, 1_000_000, OpReceive)
		assert.True(t, decision.Authorized)
		assert.False(t, decision.RequiresApproval)
		assert.True(t, decision.EffectiveLimit.IsUnbounded())
	})
}

func TestEvaluateWithLimits_ProposalsOnlyTighten(t *testing.T) {
	engine := NewEngine(Limits{})

	t.Run("tighter proposal applies", func(t *testing.T) {
		decision := engine.EvaluateWithLimits(RoleOffspring, 6_000, OpSpend, Limits{
			PerTransaction:    5_000,
			ApprovalThreshold: 1_000,
		})
		assert.False(t, decision.Authorized)
		assert.True(t, decision.RequiresApproval)
	})

	t.Run("looser proposal is ignored", func(t *testing.T) {
		decision := engine.EvaluateWithLimits(RoleOffspring, 30_000, OpSpend, Limits{
			PerTransaction:    100_000,
			ApprovalThreshold: 90_000,
		})
		assert.False(t, decision.Authorized)
		assert.True(t, decision.RequiresApproval)
	})
}

func TestEvaluate_UnknownRoleFailsClosed(t *testing.T) {
	engine := NewEngine(Limits{})

	decision := engine.Evaluate(Role("admin"), 1, OpSpend)
	assert.False(t, decision.Authorized)
	assert.False(t, decision.RequiresApproval)
	assert.False(t, decision.EffectiveLimit.IsUnbounded())
	assert.False(t, decision.EffectiveLimit.Allows(1))

	// Receive is also denied for unknown roles: fail closed beats the
	// dependent always-receive rule.
	decision = engine.Evaluate(Role(""), 1, OpReceive)
	assert.False(t, decision.Authorized)
}

func TestParseRole(t *testing.T) {
	t.Run("accepts current roles", func(t *testing.T) {
		for _, s := range []string{"adult", "steward", "guardian", "private", "offspring"} {
			role, err := ParseRole(s)
			require.NoError(t, err)
			assert.Equal(t, Role(s), role)
		}
	})

	t.Run("maps legacy roles at the boundary", func(t *testing.T) {
		role, err := ParseRole("parent")
		require.NoError(t, err)
		assert.Equal(t, RoleAdult, role)

		role, err = ParseRole("child")
		require.NoError(t, err)
		assert.Equal(t, RoleOffspring, role)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		_, err := ParseRole("superuser")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
