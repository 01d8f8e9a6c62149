package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmad-code-org/bmad-beads/internal/document"
	"github.com/bmad-code-org/bmad-beads/internal/tracker"
	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// fakeTracker mints sequential IDs and records every call.
type fakeTracker struct {
	seq      int
	creates  []string
	opts     []tracker.CreateOptions
	blockers [][2]string
	closed   []string
	failOn   map[string]bool   // titles whose creation fails
	ids      map[string]string // fixed IDs by title
	failDeps bool
}

func (f *fakeTracker) Create(ctx context.Context, title string, opts tracker.CreateOptions) (string, error) {
	if f.failOn[title] {
		return "", errors.New("exit status 1")
	}
	f.seq++
	f.creates = append(f.creates, title)
	f.opts = append(f.opts, opts)
	if id, ok := f.ids[title]; ok {
		return id, nil
	}
	return fmt.Sprintf("proj-%d", f.seq), nil
}

func (f *fakeTracker) AddBlocker(ctx context.Context, blocked, blocker string) error {
	if f.failDeps {
		return errors.New("dep failed")
	}
	f.blockers = append(f.blockers, [2]string{blocked, blocker})
	return nil
}

func (f *fakeTracker) Close(ctx context.Context, id string) error {
	f.closed = append(f.closed, id)
	return nil
}

func item(kind types.Kind, title string, children ...*types.WorkItem) *types.WorkItem {
	return &types.WorkItem{Kind: kind, Title: title, Children: children}
}

func withID(w *types.WorkItem, id string) *types.WorkItem {
	w.ID = id
	return w
}

func done(w *types.WorkItem) *types.WorkItem {
	w.Completed = true
	return w
}

func TestMigrateHierarchyAndOrdering(t *testing.T) {
	epics := []*types.WorkItem{
		item(types.KindEpic, "Core",
			item(types.KindStory, "Login",
				done(item(types.KindTask, "Form",
					item(types.KindSubtask, "Fields"),
					done(item(types.KindSubtask, "Styling")),
				)),
				item(types.KindTask, "Submit"),
			),
			item(types.KindStory, "Logout"),
		),
		item(types.KindEpic, "Billing"),
	}
	ft := &fakeTracker{}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	require.True(t, res.Success(), res.Errors)
	assert.Equal(t, []string{"Epic: Core", "Login", "Form", "Fields", "Styling", "Submit", "Logout", "Epic: Billing"}, ft.creates)

	// IDs in creation order: Core=1 Login=2 Form=3 Fields=4 Styling=5 Submit=6 Logout=7 Billing=8
	assert.Equal(t, [][2]string{
		{"proj-5", "proj-4"}, // Styling after Fields
		{"proj-6", "proj-3"}, // Submit after Form
		{"proj-7", "proj-2"}, // Logout after Login
		{"proj-8", "proj-1"}, // Billing after Core
	}, ft.blockers)
	assert.Equal(t, []string{"proj-3", "proj-5"}, ft.closed)

	assert.Equal(t, Stats{Created: 8, Closed: 2, Dependencies: 4}, res.Stats)
	assert.Len(t, res.Created, 8)
	assert.Equal(t, CreatedIssue{ID: "proj-1", Title: "Core", Kind: types.KindEpic}, res.Created[0])

	login := epics[0].Children[0]
	assert.Equal(t, "proj-2", login.ID)
	assert.Equal(t, "proj-1", login.ParentID)
	assert.Equal(t, "proj-3", login.Children[0].Children[0].ParentID)
	for _, e := range epics {
		assert.NoError(t, e.Validate())
	}
}

func TestMigrateLabels(t *testing.T) {
	epics := []*types.WorkItem{
		item(types.KindEpic, "Core",
			item(types.KindStory, "Login",
				done(item(types.KindTask, "Form",
					item(types.KindSubtask, "Fields"),
				)),
			),
		),
	}
	ft := &fakeTracker{}
	New(ft, Options{}).Migrate(context.Background(), epics)

	require.Len(t, ft.opts, 4)
	assert.Equal(t, tracker.CreateOptions{Type: types.TypeEpic, Labels: []string{"bmad:stage:backlog"}}, ft.opts[0])
	assert.Equal(t, tracker.CreateOptions{Type: types.TypeTask, Parent: "proj-1", Labels: []string{"bmad:story", "bmad:stage:backlog"}}, ft.opts[1])
	assert.Equal(t, tracker.CreateOptions{Type: types.TypeTask, Parent: "proj-2", Labels: []string{"bmad:task", "bmad:stage:done"}}, ft.opts[2])
	assert.Equal(t, tracker.CreateOptions{Type: types.TypeTask, Parent: "proj-3", Labels: []string{"bmad:subtask", "bmad:stage:backlog"}}, ft.opts[3])
}

func TestMigrateCustomStagePrefix(t *testing.T) {
	ft := &fakeTracker{}
	New(ft, Options{StagePrefix: "stage:"}).Migrate(context.Background(), []*types.WorkItem{item(types.KindEpic, "Core")})
	assert.Equal(t, []string{"stage:backlog"}, ft.opts[0].Labels)
}

func TestMigrateIdempotent(t *testing.T) {
	epics := []*types.WorkItem{
		withID(item(types.KindEpic, "Core",
			withID(item(types.KindStory, "Login",
				withID(item(types.KindTask, "Form",
					withID(item(types.KindSubtask, "Fields"), "proj-a.1.1.1"),
				), "proj-a.1.1"),
			), "proj-a.1"),
			withID(item(types.KindStory, "Logout"), "proj-a.2"),
		), "proj-a"),
		withID(item(types.KindEpic, "Billing"), "proj-b"),
	}
	ft := &fakeTracker{}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	assert.True(t, res.Success())
	assert.Empty(t, ft.creates)
	assert.Empty(t, ft.blockers)
	assert.Empty(t, ft.closed)
	assert.Equal(t, Stats{Skipped: 6}, res.Stats)
	assert.Equal(t, "proj-a", epics[0].Children[1].ParentID)
}

func TestMigrateAnchorsChainNewSiblings(t *testing.T) {
	story := withID(item(types.KindStory, "Login",
		withID(item(types.KindTask, "Form"), "proj-a.1.1"),
		item(types.KindTask, "Submit"),
	), "proj-a.1")
	epics := []*types.WorkItem{withID(item(types.KindEpic, "Core", story), "proj-a")}

	ft := &fakeTracker{}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	require.True(t, res.Success())
	assert.Equal(t, []string{"Submit"}, ft.creates)
	assert.Equal(t, "proj-a.1", ft.opts[0].Parent)
	assert.Equal(t, [][2]string{{"proj-1", "proj-a.1.1"}}, ft.blockers)
}

func TestMigratePartialFailure(t *testing.T) {
	epics := []*types.WorkItem{
		item(types.KindEpic, "Core",
			item(types.KindStory, "Broken",
				item(types.KindTask, "Never created"),
			),
			item(types.KindStory, "Works"),
		),
	}
	ft := &fakeTracker{failOn: map[string]bool{"Broken": true}}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	assert.False(t, res.Success())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `failed to create story "Broken"`)
	assert.Equal(t, []string{"Epic: Core", "Works"}, ft.creates)
	// The failed story is not an anchor, so Works is not chained.
	assert.Empty(t, ft.blockers)
	assert.Equal(t, 1, res.Stats.Errors)
}

func TestMigrateParentageWarnings(t *testing.T) {
	epics := []*types.WorkItem{
		item(types.KindEpic, "Core",
			item(types.KindStory, "Nested"),
			item(types.KindStory, "Flat"),
		),
		withID(item(types.KindEpic, "Billing",
			withID(item(types.KindStory, "Invoices"), "proj-x.4"),
		), "proj-b"),
	}
	ft := &fakeTracker{ids: map[string]string{
		"Epic: Core": "proj-a",
		"Nested":     "proj-a.1",
		"Flat":       "proj-q",
	}}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	require.True(t, res.Success(), res.Errors)
	assert.Equal(t, 3, res.Stats.Created)
	assert.Equal(t, []string{
		`ID "proj-q" is not hierarchical`,
		`ID "proj-x.4" is not a direct child of "proj-b"`,
	}, res.Warnings)
}

func TestMigrateTaggedEpicIsCreated(t *testing.T) {
	epics := document.ParseEpics("## Epic 1: Foundation [MVP]\n### Story 1.1: Login\n", "epics.md")
	ft := &fakeTracker{}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	require.True(t, res.Success(), res.Errors)
	assert.Equal(t, []string{"Epic: Foundation [MVP]", "Login"}, ft.creates)
	assert.Equal(t, "proj-1", ft.opts[1].Parent)
	assert.Equal(t, Stats{Created: 2}, res.Stats)
}

func TestMigrateSkipsInvalidItem(t *testing.T) {
	epics := []*types.WorkItem{
		item(types.KindEpic, "Core",
			item(types.KindStory, "",
				item(types.KindTask, "Orphan"),
			),
			item(types.KindStory, "Login"),
		),
	}
	ft := &fakeTracker{}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "title is required")
	assert.Equal(t, []string{"Epic: Core", "Login"}, ft.creates)
}

func TestMigrateDependencyFailureContinues(t *testing.T) {
	epics := []*types.WorkItem{item(types.KindEpic, "A"), item(types.KindEpic, "B"), item(types.KindEpic, "C")}
	ft := &fakeTracker{failDeps: true}
	res := New(ft, Options{}).Migrate(context.Background(), epics)

	assert.Len(t, ft.creates, 3)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 0, res.Stats.Dependencies)
}

func TestMigrateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ft := &fakeTracker{}
	res := New(ft, Options{}).Migrate(ctx, []*types.WorkItem{item(types.KindEpic, "A")})

	assert.Empty(t, ft.creates)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "interrupted")
}

// countingRunner stands in for the bd binary and records each invocation.
type countingRunner struct {
	calls []string
}

func (r *countingRunner) Run(ctx context.Context, dir, path string, args []string) ([]byte, []byte, error) {
	r.calls = append(r.calls, strings.Join(args, " "))
	if len(args) > 0 && args[0] == "version" {
		return []byte("bd version 0.49.0\n"), nil, nil
	}
	return nil, nil, errors.New("unexpected invocation")
}

func TestMigrateDryRun(t *testing.T) {
	runner := &countingRunner{}
	client := tracker.New(tracker.Config{DryRun: true, Runner: runner})

	_, err := client.Version(context.Background())
	require.NoError(t, err)

	epics := []*types.WorkItem{
		withID(item(types.KindEpic, "Core",
			item(types.KindStory, "Login"),
			done(item(types.KindStory, "Logout")),
		), "proj-a"),
	}
	res := New(client, Options{DryRun: true}).Migrate(context.Background(), epics)

	require.True(t, res.Success(), res.Errors)
	assert.True(t, res.DryRun)
	require.Len(t, res.Created, 2)
	assert.Equal(t, "dry-run-1", res.Created[0].ID)
	assert.Equal(t, "dry-run-2", res.Created[1].ID)
	assert.Equal(t, []string{"version"}, runner.calls)
	assert.Equal(t, 0, res.Stats.Closed)
}
