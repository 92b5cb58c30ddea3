package runner

import (
	"fmt"

	"brainbox/internal/tools"
	"brainbox/internal/tools/builtin"
)

// MaxAttempts is the number of attempts per turn, one per tier.
const MaxAttempts = 3

// Tier labels.
const (
	TierEssential = "essential"
	TierMinimal   = "minimal"
	TierTextOnly  = "text-only"
)

// Tier is the capability set exposed to the backend on one attempt.
type Tier struct {
	Index int
	Tools []tools.Tool
	Label string
}

// Names returns the tool names of the tier.
func (t Tier) Names() []string {
	names := make([]string, len(t.Tools))
	for i, tool := range t.Tools {
		names[i] = tool.Name()
	}
	return names
}

// TierSelector maps an attempt index to its tier. Tool sets only shrink from
// one tier to the next and the last tier is always empty.
type TierSelector struct {
	tiers [MaxAttempts]Tier
}

// NewTierSelector resolves the essential and minimal tool names against reg.
// The minimal tier must contain the task creation tool and be a subset of the
// essential tier.
func NewTierSelector(reg *tools.Registry, essential, minimal []string) (*TierSelector, error) {
	first, err := reg.Resolve(essential)
	if err != nil {
		return nil, fmt.Errorf("resolve %s tier: %w", TierEssential, err)
	}
	second, err := reg.Resolve(minimal)
	if err != nil {
		return nil, fmt.Errorf("resolve %s tier: %w", TierMinimal, err)
	}

	inFirst := make(map[string]bool, len(first))
	for _, t := range first {
		inFirst[t.Name()] = true
	}
	hasCreate := false
	for _, t := range second {
		if !inFirst[t.Name()] {
			return nil, fmt.Errorf("%s tier tool %q is not in the %s tier", TierMinimal, t.Name(), TierEssential)
		}
		if t.Name() == builtin.CreateTask {
			hasCreate = true
		}
	}
	if !hasCreate {
		return nil, fmt.Errorf("%s tier must include %s", TierMinimal, builtin.CreateTask)
	}

	return &TierSelector{tiers: [MaxAttempts]Tier{
		{Index: 0, Tools: first, Label: TierEssential},
		{Index: 1, Tools: second, Label: TierMinimal},
		{Index: 2, Tools: nil, Label: TierTextOnly},
	}}, nil
}

// Tier returns the tier for attempt i. Indexes past the last tier return the
// last tier.
func (s *TierSelector) Tier(i int) Tier {
	if i < 0 {
		i = 0
	}
	if i >= MaxAttempts {
		i = MaxAttempts - 1
	}
	return s.tiers[i]
}
