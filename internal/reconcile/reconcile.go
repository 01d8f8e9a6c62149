// Package reconcile compares BMAD document state with live tracker state and
// reports the differences as discrepancies. It never writes to either side.
package reconcile

import (
	"fmt"
	"path/filepath"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/document"
	"github.com/bmad-code-org/bmad-beads/internal/ledger"
	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// Snapshot is the document side of one reconciliation pass.
type Snapshot struct {
	Epics   []*types.WorkItem    // epics document tree; only items with IDs are checked
	Ledger  *ledger.Ledger       // may be nil when the ledger file is absent
	Stories []*document.StoryDoc // parsed story files
}

// Reconciler diffs a Snapshot against tracker issues.
type Reconciler struct {
	stagePrefix string

	// OnWarning receives suspicious input that is not a discrepancy, such
	// as malformed IDs or unknown stages. Warnings go to the debug log if nil.
	OnWarning func(msg string)
}

// New returns a Reconciler that reads stages from labels with stagePrefix
// (types.LabelStagePrefix if empty).
func New(stagePrefix string) *Reconciler {
	if stagePrefix == "" {
		stagePrefix = types.LabelStagePrefix
	}
	return &Reconciler{stagePrefix: stagePrefix}
}

// pass holds the state of one Reconcile call.
type pass struct {
	*Reconciler
	issues map[string]*types.TrackerIssue
	out    []types.Discrepancy
}

// Reconcile returns every discrepancy between snap and issues, in the order
// epics tree, ledger entries in file order, then story files.
func (r *Reconciler) Reconcile(snap Snapshot, issues []types.TrackerIssue) []types.Discrepancy {
	p := &pass{Reconciler: r, issues: make(map[string]*types.TrackerIssue, len(issues))}
	for i := range issues {
		p.issues[issues[i].ID] = &issues[i]
	}
	debug.Logf("reconciling against %d tracker issues\n", len(issues))

	for _, epic := range snap.Epics {
		p.checkTree(epic)
	}
	if snap.Ledger != nil {
		for _, entry := range snap.Ledger.Entries {
			p.checkLedgerEntry(entry)
		}
	}
	for _, story := range snap.Stories {
		p.checkStory(story)
	}
	return p.out
}

func (p *pass) emit(d types.Discrepancy) {
	p.out = append(p.out, d)
}

func (r *Reconciler) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if r.OnWarning != nil {
		r.OnWarning(msg)
		return
	}
	debug.Logf("warning: %s\n", msg)
}

func (p *pass) lookup(id string, kind types.Kind) (*types.TrackerIssue, bool) {
	if err := types.ValidateHierarchicalID(id, kind); err != nil {
		p.warn("%v", err)
	}
	issue, ok := p.issues[id]
	return issue, ok
}

// checkTree verifies every identified node of an epics document tree exists
// and, for checklist items, that completion agrees with the tracker.
func (p *pass) checkTree(root *types.WorkItem) {
	root.Walk(func(item *types.WorkItem) bool {
		if !item.HasID() {
			return true
		}
		source := filepath.Base(item.Source)
		issue, ok := p.lookup(item.ID, item.Kind)
		if !ok {
			p.emit(missing(source, "", item.ID,
				fmt.Sprintf("Beads %s %s not found - remove ID from document or re-create", item.Kind, item.ID)))
			return true
		}
		if item.Status != "" {
			p.compareStage(source, "", item.ID, item.Status, issue,
				fmt.Sprintf("Update %s %s", item.Kind, item.Number))
		}
		if item.Kind == types.KindTask || item.Kind == types.KindSubtask {
			p.compareCompletion(source, item, issue)
		}
		return true
	})
}

func (p *pass) checkLedgerEntry(entry ledger.Entry) {
	if !ledger.Tracked(entry.Key) || entry.TrackerID == "" {
		return
	}
	issue, ok := p.lookup(entry.TrackerID, types.KindStory)
	if !ok {
		p.emit(missing(ledger.FileName, entry.Key, entry.TrackerID,
			fmt.Sprintf("Beads issue %s not found - remove from sprint-status or re-create", entry.TrackerID)))
		return
	}
	p.compareStage(ledger.FileName, entry.Key, entry.TrackerID, entry.Status, issue,
		fmt.Sprintf("Update %s: %s", ledger.FileName, entry.Key))
}

func (p *pass) checkStory(story *document.StoryDoc) {
	if story.StoryID == "" {
		return
	}
	source := filepath.Base(story.Source)

	issue, ok := p.lookup(story.StoryID, types.KindStory)
	if !ok {
		p.emit(missing(source, "", story.StoryID,
			fmt.Sprintf("Beads story %s not found - remove ID from story or re-create", story.StoryID)))
		return
	}
	if story.Status != "" {
		p.compareStage(source, "", story.StoryID, story.Status, issue, "Update story file: Status")
	}

	if story.EpicID != "" {
		if _, ok := p.lookup(story.EpicID, types.KindEpic); !ok {
			p.emit(missing(source, "", story.EpicID,
				fmt.Sprintf("Beads epic %s not found - remove ID from story or re-create", story.EpicID)))
		}
	}

	for _, task := range story.LinkedTasks() {
		taskIssue, ok := p.lookup(task.ID, task.Kind)
		if !ok {
			p.emit(missing(source, "", task.ID,
				fmt.Sprintf("Beads task %s not found - remove ID from story or re-create: %s", task.ID, task.Title)))
			continue
		}
		p.compareCompletion(source, task, taskIssue)
	}
}

// compareStage emits a status_mismatch when the canonical document stage and
// the tracker stage differ.
func (p *pass) compareStage(source, key, id, status string, issue *types.TrackerIssue, what string) {
	docStage := types.CanonicalStage(status)
	trackerStage := types.TrackerStage(issue, p.stagePrefix)
	if !docStage.IsKnown() {
		p.warn("%s: unknown status %q for %s", source, status, id)
	}
	if !trackerStage.IsKnown() && issue.HasLabel(types.StageLabel(p.stagePrefix, trackerStage)) {
		p.warn("issue %s has unknown stage label %q", id, types.StageLabel(p.stagePrefix, trackerStage))
	}
	if docStage == trackerStage {
		return
	}
	p.emit(types.Discrepancy{
		Kind:          types.DiscrepancyStatusMismatch,
		Source:        source,
		Key:           key,
		TrackerID:     id,
		DocumentStage: string(docStage),
		TrackerStage:  string(trackerStage),
		Fix:           types.FixUpdateStatus,
		Description:   fmt.Sprintf("%s status from %q to %q", what, status, trackerStage),
	})
}

// compareCompletion emits a task_completion_mismatch when the checkbox and the
// tracker's closed state disagree. The tracker decides the fix direction.
func (p *pass) compareCompletion(source string, task *types.WorkItem, issue *types.TrackerIssue) {
	closed := issue.IsClosed()
	if task.Completed == closed {
		return
	}
	d := types.Discrepancy{
		Kind:              types.DiscrepancyTaskCompletionMismatch,
		Source:            source,
		TrackerID:         task.ID,
		TaskTitle:         task.Title,
		DocumentCompleted: task.Completed,
		TrackerClosed:     closed,
	}
	if closed {
		d.Fix = types.FixCheckBox
		d.Description = "Mark task [x] in story file: " + task.Title
	} else {
		d.Fix = types.FixUncheckBox
		d.Description = "Uncheck task [ ] in story file: " + task.Title
	}
	p.emit(d)
}

func missing(source, key, id, description string) types.Discrepancy {
	return types.Discrepancy{
		Kind:        types.DiscrepancyMissingTrackerIssue,
		Source:      source,
		Key:         key,
		TrackerID:   id,
		Fix:         types.FixRelink,
		Description: description,
	}
}
