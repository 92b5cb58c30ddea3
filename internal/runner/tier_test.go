package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbox/internal/tools"
)

func TestTierSelector_MonotonicDegradation(t *testing.T) {
	sel := newTestTiers(t)

	for i := 0; i < MaxAttempts-1; i++ {
		cur, next := sel.Tier(i), sel.Tier(i+1)
		assert.LessOrEqual(t, len(next.Tools), len(cur.Tools))
		for _, nt := range next.Tools {
			found := false
			for _, ct := range cur.Tools {
				if ct == nt {
					found = true
				}
			}
			assert.True(t, found, "tier %d tool %s missing from tier %d", i+1, nt.Name(), i)
		}
	}
	assert.Empty(t, sel.Tier(2).Tools)
}

func TestTierSelector_Defaults(t *testing.T) {
	sel := newTestTiers(t)

	assert.Equal(t, []string{"list_tasks", "create_task", "verify_task"}, sel.Tier(0).Names())
	assert.Equal(t, TierEssential, sel.Tier(0).Label)
	assert.Equal(t, []string{"create_task"}, sel.Tier(1).Names())
	assert.Equal(t, TierMinimal, sel.Tier(1).Label)
	assert.Equal(t, TierTextOnly, sel.Tier(2).Label)
	assert.Equal(t, 2, sel.Tier(2).Index)
	assert.Equal(t, TierTextOnly, sel.Tier(7).Label)
	assert.Equal(t, TierEssential, sel.Tier(-1).Label)
}

func TestNewTierSelector_Errors(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := NewTierSelector(reg, []string{"list_tasks", "create_task"}, []string{"list_tasks"})
	assert.ErrorContains(t, err, "must include create_task")

	_, err = NewTierSelector(reg, []string{"list_tasks"}, []string{"create_task"})
	assert.ErrorContains(t, err, "not in the essential tier")

	_, err = NewTierSelector(reg, []string{"list_tasks", "nope"}, []string{"create_task"})
	assert.ErrorIs(t, err, tools.ErrToolNotFound)

	sel, err := NewTierSelector(reg, []string{"create_task", "save_note"}, []string{"create_task"})
	require.NoError(t, err)
	assert.Equal(t, []string{"create_task", "save_note"}, sel.Tier(0).Names())
}
