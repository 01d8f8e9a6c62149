package document

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bmad-code-org/bmad-beads/internal/types"
)

var (
	statusLineRe  = regexp.MustCompile(`(?m)^Status:[ \t]*(.+?)\s*$`)
	epicMarkerRe  = regexp.MustCompile("Epic:\\s*`([^`]+)`")
	storyMarkerRe = regexp.MustCompile("Story:\\s*`([^`]+)`")
	slugRe        = regexp.MustCompile(`[^a-z0-9]+`)
)

// StoryDoc is the reconciliation view of one story file.
type StoryDoc struct {
	Source  string            // File the story was read from
	Status  string            // Value of the "Status:" line, empty if absent
	EpicID  string            // Tracker ID from the "Epic: `id`" marker
	StoryID string            // Tracker ID from the "Story: `id`" marker
	Tasks   []*types.WorkItem // Tasks with their subtasks as children
}

// LinkedTasks returns every task and subtask that carries a tracker ID,
// in document order.
func (d *StoryDoc) LinkedTasks() []*types.WorkItem {
	var linked []*types.WorkItem
	for _, task := range d.Tasks {
		task.Walk(func(w *types.WorkItem) bool {
			if w.HasID() {
				linked = append(linked, w)
			}
			return true
		})
	}
	return linked
}

// ParseTasks extracts tasks and subtasks from the Tasks/Subtasks section of a
// story document.
func ParseTasks(text, source string) []*types.WorkItem {
	var (
		tasks []*types.WorkItem
		task  *types.WorkItem
		st    = stateOutside
	)

	for _, line := range splitLines(text) {
		kind, m := classify(line)
		st = taskTransition(st, kind)
		if st != stateInTaskSection {
			continue
		}

		switch kind {
		case lineTask:
			task = &types.WorkItem{
				Kind:      types.KindTask,
				Title:     strings.TrimSpace(m[2]),
				Completed: checked(m[1]),
				ID:        strings.TrimSpace(m[3]),
				Source:    source,
			}
			tasks = append(tasks, task)
		case lineSubtask:
			if task == nil {
				continue // subtask with no task above it
			}
			task.Children = append(task.Children, &types.WorkItem{
				Kind:      types.KindSubtask,
				Title:     strings.TrimSpace(m[2]),
				Completed: checked(m[1]),
				ID:        strings.TrimSpace(m[3]),
				ParentID:  task.ID,
				Source:    source,
			})
		}
	}

	return tasks
}

// ParseStory reads the status line, tracker ID markers and tasks of a story file.
func ParseStory(text, source string) *StoryDoc {
	doc := &StoryDoc{Source: source}
	if m := statusLineRe.FindStringSubmatch(text); m != nil {
		doc.Status = m[1]
	}
	if m := epicMarkerRe.FindStringSubmatch(text); m != nil {
		doc.EpicID = m[1]
	}
	if m := storyMarkerRe.FindStringSubmatch(text); m != nil {
		doc.StoryID = m[1]
	}
	doc.Tasks = ParseTasks(text, source)
	for _, task := range doc.Tasks {
		task.ParentID = doc.StoryID
	}
	return doc
}

// StoryKey returns the file stem used for a story: "<epic>-<story>-<slug>".
func StoryKey(epicNum, storyNum int, title string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(title), "-")
	return strconv.Itoa(epicNum) + "-" + strconv.Itoa(storyNum) + "-" + slug
}
