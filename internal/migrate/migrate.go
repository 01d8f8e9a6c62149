// Package migrate creates tracker issues for a BMAD document tree.
//
// Epics, stories, tasks and subtasks become issues linked by --parent.
// Siblings are serialized with "blocks" dependencies so that each item is
// ready only after the one before it. Items that already carry a tracker ID
// are anchors: they are neither created nor chained, but the next sibling
// is chained onto them and their children are still migrated.
package migrate

import (
	"context"
	"fmt"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/tracker"
	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// Tracker is the subset of the tracker client the migrator drives.
type Tracker interface {
	Create(ctx context.Context, title string, opts tracker.CreateOptions) (string, error)
	AddBlocker(ctx context.Context, blocked, blocker string) error
	Close(ctx context.Context, id string) error
}

// Options configures a Migrator.
type Options struct {
	DryRun      bool
	StagePrefix string // label prefix for stages, types.LabelStagePrefix if empty
	ProjectDir  string // when set, real creations are appended to the event log
}

// Migrator walks a document tree and creates the matching issues.
type Migrator struct {
	tracker Tracker
	opts    Options
}

// New returns a Migrator that issues commands through t.
func New(t Tracker, opts Options) *Migrator {
	if opts.StagePrefix == "" {
		opts.StagePrefix = types.LabelStagePrefix
	}
	return &Migrator{tracker: t, opts: opts}
}

// CreatedIssue records one issue created (or, in dry-run, that would be created).
type CreatedIssue struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Kind  types.Kind `json:"kind"`
}

// Stats counts what a migration did.
type Stats struct {
	Created      int `json:"created"`
	Skipped      int `json:"skipped"`
	Closed       int `json:"closed"`
	Dependencies int `json:"dependencies"`
	Errors       int `json:"errors"`
}

// Result is the outcome of one migration run. Epics is the input tree with
// IDs and parent IDs filled in for every item that was created.
type Result struct {
	DryRun  bool              `json:"dry_run"`
	Created  []CreatedIssue    `json:"created"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Stats    Stats             `json:"stats"`
	Epics    []*types.WorkItem `json:"-"`
}

// Success reports whether the run finished without errors.
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Stats.Errors++
}

func (r *Result) addWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	debug.Logf("warning: %s\n", msg)
	r.Warnings = append(r.Warnings, msg)
}

// Migrate creates issues for every item in epics that has no tracker ID yet.
// A failed creation is recorded and that item's subtree is skipped; other
// failures are recorded and the walk continues.
func (m *Migrator) Migrate(ctx context.Context, epics []*types.WorkItem) *Result {
	res := &Result{DryRun: m.opts.DryRun, Created: []CreatedIssue{}, Epics: epics}
	m.migrateSiblings(ctx, epics, "", res)
	return res
}

func (m *Migrator) migrateSiblings(ctx context.Context, siblings []*types.WorkItem, parentID string, res *Result) {
	var previous string
	for _, item := range siblings {
		if err := ctx.Err(); err != nil {
			res.addError("migration interrupted before %q: %v", item.Title, err)
			return
		}

		if item.HasID() {
			debug.Logf("%s %q already has tracker ID %s\n", item.Kind, item.Title, item.ID)
			res.Stats.Skipped++
			if item.ParentID == "" {
				item.ParentID = parentID
			}
			m.checkParentage(item.ID, parentID, res)
			previous = item.ID
			m.migrateSiblings(ctx, item.Children, item.ID, res)
			continue
		}

		if err := item.Validate(); err != nil {
			res.addError("skipping %s %q: %v", item.Kind, item.Title, err)
			continue
		}

		id, err := m.tracker.Create(ctx, title(item), m.createOptions(item, parentID))
		if err != nil {
			res.addError("failed to create %s %q: %v", item.Kind, item.Title, err)
			continue
		}
		item.ID = id
		item.ParentID = parentID
		res.Created = append(res.Created, CreatedIssue{ID: id, Title: item.Title, Kind: item.Kind})
		res.Stats.Created++
		debug.Logf("created %s %s: %s\n", item.Kind, id, item.Title)
		m.checkParentage(id, parentID, res)
		if m.opts.ProjectDir != "" && !m.opts.DryRun {
			debug.LogEvent(m.opts.ProjectDir, "CREATE", id, fmt.Sprintf("%s: %s", item.Kind, item.Title))
		}

		if item.Completed && !m.opts.DryRun {
			if err := m.tracker.Close(ctx, id); err != nil {
				res.addError("failed to close %s: %v", id, err)
			} else {
				res.Stats.Closed++
			}
		}

		if previous != "" {
			if err := m.tracker.AddBlocker(ctx, id, previous); err != nil {
				res.addError("failed to add blocker %s -> %s: %v", previous, id, err)
			} else {
				res.Stats.Dependencies++
				debug.Logf("added blocker: %s blocks %s\n", previous, id)
			}
		}
		previous = id

		m.migrateSiblings(ctx, item.Children, id, res)
	}
}

// checkParentage warns when the tracker did not nest id directly below
// parentID. Hierarchical IDs are a tracker convention, so a mismatch is
// reported but the item is kept.
func (m *Migrator) checkParentage(id, parentID string, res *Result) {
	if parentID == "" || m.opts.DryRun {
		return
	}
	if err := types.ValidateParentage(id, parentID); err != nil {
		res.addWarning("%v", err)
	}
}

// title is the issue title for item; epics are prefixed so they stand out in
// flat tracker listings.
func title(item *types.WorkItem) string {
	if item.Kind == types.KindEpic {
		return "Epic: " + item.Title
	}
	return item.Title
}

func (m *Migrator) createOptions(item *types.WorkItem, parentID string) tracker.CreateOptions {
	stage := types.StageBacklog
	if item.Completed {
		stage = types.StageDone
	}
	stageLabel := types.StageLabel(m.opts.StagePrefix, stage)

	opts := tracker.CreateOptions{Type: types.TypeTask, Parent: parentID}
	switch item.Kind {
	case types.KindEpic:
		opts.Type = types.TypeEpic
		opts.Labels = []string{stageLabel}
	case types.KindStory:
		opts.Labels = []string{types.LabelStory, stageLabel}
	case types.KindTask:
		opts.Labels = []string{types.LabelTask, stageLabel}
	case types.KindSubtask:
		opts.Labels = []string{types.LabelSubtask, stageLabel}
	}
	return opts
}
