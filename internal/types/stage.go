package types

import "strings"

// Stage is a workflow position shared by BMAD documents and tracker labels.
type Stage string

// Canonical stages
const (
	StageBacklog     Stage = "backlog"
	StageReadyForDev Stage = "ready-for-dev"
	StageInProgress  Stage = "in-progress"
	StageReview      Stage = "review"
	StageDone        Stage = "done"
)

// Label conventions used on tracker issues
const (
	LabelStagePrefix = "bmad:stage:"
	LabelStory       = "bmad:story"
	LabelTask        = "bmad:task"
	LabelSubtask     = "bmad:subtask"
)

// stageAliases maps document statuses, including legacy names, to stages.
var stageAliases = map[string]Stage{
	"backlog":       StageBacklog,
	"ready-for-dev": StageReadyForDev,
	"drafted":       StageReadyForDev, // legacy
	"in-progress":   StageInProgress,
	"contexted":     StageInProgress, // legacy
	"review":        StageReview,
	"done":          StageDone,
}

// CanonicalStage maps a document status through the alias table.
// Unrecognized statuses pass through unchanged.
func CanonicalStage(status string) Stage {
	if s, ok := stageAliases[status]; ok {
		return s
	}
	return Stage(status)
}

// IsKnown reports whether s is one of the canonical stages.
func (s Stage) IsKnown() bool {
	switch s {
	case StageBacklog, StageReadyForDev, StageInProgress, StageReview, StageDone:
		return true
	}
	return false
}

// StageLabel returns the tracker label for s under prefix.
func StageLabel(prefix string, s Stage) string {
	return prefix + string(s)
}

// TrackerStage derives the stage of an issue: the first label with the stage
// prefix wins, otherwise it is inferred from the issue status.
func TrackerStage(issue *TrackerIssue, prefix string) Stage {
	for _, label := range issue.Labels {
		if strings.HasPrefix(label, prefix) {
			return Stage(strings.TrimPrefix(label, prefix))
		}
	}
	switch issue.Status {
	case StatusClosed:
		return StageDone
	case StatusInProgress:
		return StageInProgress
	}
	return StageBacklog
}
