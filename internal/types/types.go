// Package types defines the core data structures shared by the BMAD ↔ Beads
// integration: work items parsed from planning documents, issues read back
// from the tracker, and the discrepancies found between the two.
package types

import (
	"encoding/json"
	"fmt"
)

// Kind is the level of a work item in the BMAD hierarchy.
type Kind string

// Work item kinds, strictly nested in this order.
const (
	KindEpic    Kind = "epic"
	KindStory   Kind = "story"
	KindTask    Kind = "task"
	KindSubtask Kind = "subtask"
)

// IsValid checks if the kind value is one of the known levels
func (k Kind) IsValid() bool {
	switch k {
	case KindEpic, KindStory, KindTask, KindSubtask:
		return true
	}
	return false
}

// Depth returns the expected number of dot segments in a tracker ID at this level.
// Subtasks return -1: their depth is only defined relative to their task.
func (k Kind) Depth() int {
	switch k {
	case KindEpic:
		return 0
	case KindStory:
		return 1
	case KindTask:
		return 2
	}
	return -1
}

// ChildKind returns the kind of items nested directly below k.
func (k Kind) ChildKind() Kind {
	switch k {
	case KindEpic:
		return KindStory
	case KindStory:
		return KindTask
	case KindTask:
		return KindSubtask
	}
	return ""
}

// WorkItem is a node of the document tree: an epic, story, task or subtask.
type WorkItem struct {
	ID        string      `json:"id,omitempty"` // Tracker ID; empty until created or recorded in the document
	Title     string      `json:"title"`
	Kind      Kind        `json:"kind"`
	Completed bool        `json:"completed,omitempty"` // Checklist state, tasks and subtasks only
	ParentID  string      `json:"parent_id,omitempty"`
	Children  []*WorkItem `json:"children,omitempty"`

	// Number is the document index: "3" for Epic 3, "3.2" for Story 3.2.
	Number string `json:"number,omitempty"`
	// Status is the document-recorded status string (stories only).
	Status string `json:"status,omitempty"`
	// Source is the file the item was parsed from.
	Source string `json:"source,omitempty"`
}

// HasID reports whether the item already carries a tracker identifier.
func (w *WorkItem) HasID() bool {
	return w != nil && w.ID != ""
}

// Walk visits w and all of its descendants depth-first in document order.
// Returning false from fn skips the node's children.
func (w *WorkItem) Walk(fn func(*WorkItem) bool) {
	if w == nil {
		return
	}
	if !fn(w) {
		return
	}
	for _, child := range w.Children {
		child.Walk(fn)
	}
}

// Count returns the number of nodes in the tree rooted at w.
func (w *WorkItem) Count() int {
	n := 0
	w.Walk(func(*WorkItem) bool {
		n++
		return true
	})
	return n
}

// Validate checks structural invariants of a work item.
func (w *WorkItem) Validate() error {
	if w.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !w.Kind.IsValid() {
		return fmt.Errorf("invalid kind: %s", w.Kind)
	}
	if w.Kind != KindEpic && w.ID != "" && w.ParentID == "" {
		return fmt.Errorf("%s %s has a tracker ID but no parent", w.Kind, w.ID)
	}
	for _, child := range w.Children {
		if child.Kind != w.Kind.ChildKind() {
			return fmt.Errorf("%s cannot contain %s", w.Kind, child.Kind)
		}
	}
	return nil
}

// Status represents the state of an issue in the tracker
type Status string

// Tracker status constants
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusClosed     Status = "closed"
)

// IsValid checks if the status value is one the tracker reports
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusClosed:
		return true
	}
	return false
}

// IssueType categorizes tracker issues
type IssueType string

// Issue types used by the migration
const (
	TypeTask IssueType = "task"
	TypeEpic IssueType = "epic"
)

// DependencyType categorizes the relationship between two tracker issues
type DependencyType string

// Dependency types understood when decoding tracker output
const (
	DepBlocks      DependencyType = "blocks"
	DepParentChild DependencyType = "parent-child"
)

// Dependency is an edge reported by the tracker for an issue.
type Dependency struct {
	IssueID     string         `json:"issue_id"`
	DependsOnID string         `json:"depends_on_id"`
	Type        DependencyType `json:"type"`
}

// TrackerIssue is a snapshot of one issue as reported by `bd list --json`
// or `bd show --json`. It is immutable for the duration of a reconciliation pass.
type TrackerIssue struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status,omitempty"`
	IssueType IssueType `json:"issue_type,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
}

// trackerIssueJSON mirrors the wire shape, which has carried the parent
// under several names across tracker versions.
type trackerIssueJSON struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       Status        `json:"status"`
	IssueType    IssueType     `json:"issue_type"`
	Type         IssueType     `json:"type"`
	Labels       []string      `json:"labels"`
	ParentID     string        `json:"parent_id"`
	Parent       string        `json:"parent"`
	Dependencies []*Dependency `json:"dependencies"`
}

// UnmarshalJSON accepts parent_id, parent, or a parent-child dependency, in that order.
func (t *TrackerIssue) UnmarshalJSON(data []byte) error {
	var raw trackerIssueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = TrackerIssue{
		ID:        raw.ID,
		Title:     raw.Title,
		Status:    raw.Status,
		IssueType: raw.IssueType,
		Labels:    raw.Labels,
		ParentID:  raw.ParentID,
	}
	if t.IssueType == "" {
		t.IssueType = raw.Type
	}
	if t.ParentID == "" {
		t.ParentID = raw.Parent
	}
	if t.ParentID == "" {
		for _, dep := range raw.Dependencies {
			if dep != nil && dep.Type == DepParentChild && dep.IssueID == raw.ID {
				t.ParentID = dep.DependsOnID
				break
			}
		}
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	return nil
}

// IsClosed reports whether the tracker considers the issue resolved.
func (t *TrackerIssue) IsClosed() bool {
	return t.Status == StatusClosed
}

// HasLabel reports whether the issue carries label exactly.
func (t *TrackerIssue) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// DiscrepancyKind categorizes a mismatch between documents and tracker
type DiscrepancyKind string

// Discrepancy kinds
const (
	DiscrepancyStatusMismatch         DiscrepancyKind = "status_mismatch"
	DiscrepancyMissingTrackerIssue    DiscrepancyKind = "missing_tracker_issue"
	DiscrepancyTaskCompletionMismatch DiscrepancyKind = "task_completion_mismatch"
)

// FixDirection names the corrective write that would bring the document in
// line with the tracker. The tracker is authoritative.
type FixDirection string

// Fix directions
const (
	FixCheckBox     FixDirection = "check_box"
	FixUncheckBox   FixDirection = "uncheck_box"
	FixUpdateStatus FixDirection = "update_status"
	FixRelink       FixDirection = "relink"
)

// Discrepancy is one detected mismatch. It is never persisted.
type Discrepancy struct {
	Kind      DiscrepancyKind `json:"type"`
	Source    string          `json:"source"`
	Key       string          `json:"key,omitempty"` // Ledger key, when the source is the status ledger
	TrackerID string          `json:"beads_id,omitempty"`

	DocumentStage string `json:"bmad_stage,omitempty"`
	TrackerStage  string `json:"beads_stage,omitempty"`

	TaskTitle         string `json:"task_title,omitempty"`
	DocumentCompleted bool   `json:"story_completed,omitempty"`
	TrackerClosed     bool   `json:"beads_closed,omitempty"`

	Fix         FixDirection `json:"fix_direction"`
	Description string       `json:"fix"`
}

// String renders the discrepancy as a one-line report entry.
func (d Discrepancy) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Source, d.Description)
}
