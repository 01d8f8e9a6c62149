package document

import (
	"strconv"
	"strings"

	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// ParseEpics parses an epics document into epic work items, each holding its
// stories as children in document order. source is recorded on every item.
func ParseEpics(text, source string) []*types.WorkItem {
	var (
		epics []*types.WorkItem
		epic  *types.WorkItem
		st    = stateOutside
	)

	for _, line := range splitLines(text) {
		kind, m := classify(line)
		next := epicTransition(st, kind)

		switch {
		case kind == lineEpicHeader:
			title, id := headerTitleID(m[2], m[3])
			epic = &types.WorkItem{
				Kind:   types.KindEpic,
				Number: normalizeNumber(m[1]),
				Title:  title,
				ID:     id,
				Source: source,
			}
			epics = append(epics, epic)
		case kind == lineStoryHeader && next == stateInStory:
			title, id := headerTitleID(m[3], m[4])
			epic.Children = append(epic.Children, &types.WorkItem{
				Kind:   types.KindStory,
				Number: normalizeNumber(m[1]) + "." + normalizeNumber(m[2]),
				Title:  title,
				ID:     id,
				Source: source,
			})
		}
		st = next
	}

	return epics
}

// headerTitleID splits a header into title and tracker ID. A trailing
// bracket that is not ID-shaped, like "[MVP]", belongs to the title.
func headerTitleID(title, bracket string) (string, string) {
	title = strings.TrimSpace(title)
	bracket = strings.TrimSpace(bracket)
	if bracket == "" || types.LooksLikeID(bracket) {
		return title, bracket
	}
	return title + " [" + bracket + "]", ""
}

// StoryNumbers splits a story's document number ("3.2") into epic and story indices.
func StoryNumbers(story *types.WorkItem) (epicNum, storyNum int, ok bool) {
	parts := strings.SplitN(story.Number, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	e, err1 := strconv.Atoi(parts[0])
	s, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return e, s, true
}

// normalizeNumber drops leading zeros so "01" and "1" name the same epic.
func normalizeNumber(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}
