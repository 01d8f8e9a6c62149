package reconcile

import (
	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// Planner consumes a discrepancy list and decides the corrective writes.
//
// Corrective writes are not implemented yet: Apply records the intended fix
// for each discrepancy and returns them all as acknowledged, leaving both the
// documents and the tracker untouched.
type Planner struct {
	// ProjectDir, when set, receives one FIX event per discrepancy.
	ProjectDir string
	// OnFix is called for every discrepancy in order, for progress output.
	OnFix func(types.Discrepancy)
}

// Apply acknowledges ds and returns the acknowledged discrepancies.
func (p *Planner) Apply(ds []types.Discrepancy) []types.Discrepancy {
	fixed := make([]types.Discrepancy, 0, len(ds))
	for _, d := range ds {
		debug.Logf("fix (%s) %s\n", d.Fix, d.Description)
		if p.OnFix != nil {
			p.OnFix(d)
		}
		if p.ProjectDir != "" {
			debug.LogEvent(p.ProjectDir, "FIX", d.TrackerID, d.Description)
		}
		fixed = append(fixed, d)
	}
	return fixed
}
