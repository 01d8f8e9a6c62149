package document

import (
	"regexp"
	"strings"
)

// state is the position of the line scanner within a document.
type state int

const (
	stateOutside state = iota
	stateInEpic
	stateInStory
	stateInTaskSection
)

func (s state) String() string {
	switch s {
	case stateOutside:
		return "outside"
	case stateInEpic:
		return "in-epic"
	case stateInStory:
		return "in-story"
	case stateInTaskSection:
		return "in-task-section"
	}
	return "unknown"
}

// lineKind classifies a single markdown line.
type lineKind int

const (
	lineOther lineKind = iota
	lineEpicHeader
	lineStoryHeader
	lineTaskSectionHeader
	lineSectionHeading // any level 1-2 heading that is not one of the above
	lineTask           // checklist item at column 0
	lineSubtask        // indented checklist item
)

var (
	epicHeaderRe  = regexp.MustCompile(`(?i)^ {0,3}##\s+Epic\s+(\d+):\s*(.+?)(?:\s*\[([^\]]+)\])?$`)
	storyHeaderRe = regexp.MustCompile(`(?i)^ {0,3}###\s+Story\s+(\d+)\.(\d+):\s*(.+?)(?:\s*\[([^\]]+)\])?$`)
	taskSectionRe = regexp.MustCompile(`(?i)^ {0,3}##\s*Tasks\s*/?\s*Subtasks`)
	headingRe     = regexp.MustCompile(`^ {0,3}#{1,2}\s`)
	taskRe        = regexp.MustCompile("^-\\s*\\[([ x])\\]\\s*(.+?)(?:\\s*`([^`]+)`)?$")
	subtaskRe     = regexp.MustCompile("^\\s+-\\s*\\[([ x])\\]\\s*(.+?)(?:\\s*`([^`]+)`)?$")
)

// classify returns the kind of line and its submatches, if any.
// Trailing whitespace (including CR from CRLF files) is ignored.
func classify(line string) (lineKind, []string) {
	line = strings.TrimRight(line, " \t\r")
	if m := epicHeaderRe.FindStringSubmatch(line); m != nil {
		return lineEpicHeader, m
	}
	if m := storyHeaderRe.FindStringSubmatch(line); m != nil {
		return lineStoryHeader, m
	}
	if taskSectionRe.MatchString(line) {
		return lineTaskSectionHeader, nil
	}
	if headingRe.MatchString(line) {
		return lineSectionHeading, nil
	}
	if m := taskRe.FindStringSubmatch(line); m != nil {
		return lineTask, m
	}
	if m := subtaskRe.FindStringSubmatch(line); m != nil {
		return lineSubtask, m
	}
	return lineOther, nil
}

// epicTransition is the transition table for epic files.
// Lines that do not change state return the current state.
func epicTransition(from state, kind lineKind) state {
	switch kind {
	case lineEpicHeader:
		return stateInEpic
	case lineStoryHeader:
		if from == stateOutside {
			return stateOutside // stories before the first epic are ignored
		}
		return stateInStory
	}
	return from
}

// taskTransition is the transition table for the Tasks/Subtasks section of
// story files. The section ends at the next level 1-2 heading.
func taskTransition(from state, kind lineKind) state {
	switch kind {
	case lineTaskSectionHeader:
		return stateInTaskSection
	case lineSectionHeading, lineEpicHeader:
		return stateOutside
	}
	return from
}

// checked maps the checklist mark to a completion flag: only "x" is complete.
func checked(mark string) bool {
	return mark == "x"
}

// splitLines splits text on LF; CR is stripped by classify.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
