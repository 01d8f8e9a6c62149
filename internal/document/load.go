package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// EpicsSource picks the epics document under planningDir: epics.md when it
// exists, otherwise a sharded epics/ directory, otherwise epics.md.
func EpicsSource(planningDir string) string {
	file := filepath.Join(planningDir, "epics.md")
	if _, err := os.Stat(file); err == nil {
		return file
	}
	dir := filepath.Join(planningDir, "epics")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return file
}

// LoadEpics reads epics from a single markdown file, or from every *.md file
// (except index.md) of a sharded directory in name order. A missing path
// yields no epics.
func LoadEpics(path string) ([]*types.WorkItem, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat epics source: %w", err)
	}

	if !info.IsDir() {
		return loadEpicFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read epics directory: %w", err)
	}
	var epics []*types.WorkItem
	for _, entry := range entries { // ReadDir returns entries sorted by filename
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") || name == "index.md" {
			continue
		}
		fileEpics, err := loadEpicFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		epics = append(epics, fileEpics...)
	}
	return epics, nil
}

func loadEpicFile(path string) ([]*types.WorkItem, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from project configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read epics file: %w", err)
	}
	return ParseEpics(string(data), path), nil
}

// StoryPath returns the story file expected for a story work item.
func StoryPath(storyDir string, story *types.WorkItem) (string, bool) {
	epicNum, storyNum, ok := StoryNumbers(story)
	if !ok {
		return "", false
	}
	return filepath.Join(storyDir, StoryKey(epicNum, storyNum, story.Title)+".md"), true
}

// LoadTree loads epics and attaches the tasks found in each story's file.
// Stories without a file simply have no children.
func LoadTree(epicsPath, storyDir string) ([]*types.WorkItem, error) {
	epics, err := LoadEpics(epicsPath)
	if err != nil {
		return nil, err
	}
	for _, epic := range epics {
		for _, story := range epic.Children {
			path, ok := StoryPath(storyDir, story)
			if !ok {
				continue
			}
			data, err := os.ReadFile(path) // #nosec G304 -- derived from storyDir
			if os.IsNotExist(err) {
				debug.Logf("no story file for %s at %s\n", story.Number, path)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read story file %s: %w", path, err)
			}
			story.Children = ParseTasks(string(data), path)
		}
	}
	return epics, nil
}

// LoadStories parses every *.md file in storyDir. A missing directory yields
// no stories.
func LoadStories(storyDir string) ([]*StoryDoc, error) {
	entries, err := os.ReadDir(storyDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read story directory: %w", err)
	}

	var stories []*StoryDoc
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(storyDir, entry.Name())
		data, err := os.ReadFile(path) // #nosec G304 -- listed from storyDir
		if err != nil {
			return nil, fmt.Errorf("failed to read story file %s: %w", path, err)
		}
		stories = append(stories, ParseStory(string(data), path))
	}
	return stories, nil
}
