package tracker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// fakeRunner records invocations and replays canned responses keyed by the
// joined argument list.
type fakeRunner struct {
	calls     [][]string
	responses map[string]fakeResponse
}

type fakeResponse struct {
	stdout string
	stderr string
	err    error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (f *fakeRunner) on(args string, stdout string) {
	f.responses[args] = fakeResponse{stdout: stdout}
}

func (f *fakeRunner) Run(ctx context.Context, dir, path string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, args)
	resp, ok := f.responses[strings.Join(args, " ")]
	if !ok {
		return nil, []byte("unknown command"), errors.New("exit status 1")
	}
	return []byte(resp.stdout), []byte(resp.stderr), resp.err
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, "bd", c.Path)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.NotNil(t, c.runner)
}

func TestRunSuccess(t *testing.T) {
	r := newFakeRunner()
	r.on("version", "bd version 0.49.0\n")
	c := New(Config{Path: "/opt/bd", Runner: r})

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bd version 0.49.0", v)
	assert.Equal(t, [][]string{{"version"}}, r.calls)
}

func TestRunFailureCarriesCommandLine(t *testing.T) {
	r := newFakeRunner()
	r.responses["close proj-1"] = fakeResponse{stderr: "  issue not found\n", err: errors.New("exit status 1")}
	c := New(Config{Path: "bd", Runner: r})

	err := c.Close(context.Background(), "proj-1")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, []string{"close", "proj-1"}, cmdErr.Args)
	assert.False(t, cmdErr.TimedOut)
	assert.Equal(t, "bd close proj-1", cmdErr.CommandLine())
	assert.Contains(t, err.Error(), "bd close proj-1")
	assert.Contains(t, err.Error(), "issue not found")
}

func TestCreateArgs(t *testing.T) {
	r := newFakeRunner()
	r.on("create Login page --type task --parent proj-a3f8 --label bmad:story --label bmad:stage:backlog --json",
		`{"id":"proj-a3f8.1","title":"Login page"}`)
	c := New(Config{Runner: r})

	id, err := c.Create(context.Background(), "Login page", CreateOptions{
		Type:   types.TypeTask,
		Parent: "proj-a3f8",
		Labels: []string{"bmad:story", "bmad:stage:backlog"},
	})
	require.NoError(t, err)
	assert.Equal(t, "proj-a3f8.1", id)
}

func TestHelpersArgs(t *testing.T) {
	r := newFakeRunner()
	r.on("dep add proj-2 proj-1 --type blocks", "")
	r.on("label add proj-2 bmad:stage:done", "")
	r.on("label remove proj-2 bmad:stage:backlog", "")
	r.on("init --quiet --prefix proj", "")
	c := New(Config{Runner: r})
	ctx := context.Background()

	require.NoError(t, c.AddBlocker(ctx, "proj-2", "proj-1"))
	require.NoError(t, c.AddLabel(ctx, "proj-2", "bmad:stage:done"))
	require.NoError(t, c.RemoveLabel(ctx, "proj-2", "bmad:stage:backlog"))
	require.NoError(t, c.Init(ctx, "proj"))
	assert.Len(t, r.calls, 4)
}

func TestListAndShow(t *testing.T) {
	r := newFakeRunner()
	r.on("list --all --limit 0 --json", `[
		{"id":"proj-a3f8","title":"Epic: Core","status":"open","issue_type":"epic","labels":["bmad:stage:backlog"]},
		{"id":"proj-a3f8.1","title":"Login","status":"closed","parent":"proj-a3f8"}
	]`)
	r.on("show proj-a3f8.1 --json", `[{"id":"proj-a3f8.1","status":"in_progress"}]`)
	r.on("show proj-b --json", `{"id":"proj-b","status":"closed"}`)
	r.on("show proj-none --json", `[]`)
	c := New(Config{Runner: r})
	ctx := context.Background()

	issues, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, types.TypeEpic, issues[0].IssueType)
	assert.Equal(t, "proj-a3f8", issues[1].ParentID)
	assert.True(t, issues[1].IsClosed())

	issue, err := c.Show(ctx, "proj-a3f8.1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, issue.Status)

	issue, err = c.Show(ctx, "proj-b")
	require.NoError(t, err)
	assert.True(t, issue.IsClosed())

	_, err = c.Show(ctx, "proj-none")
	assert.Error(t, err)
}

func TestListIncludesClosedAndUnlimited(t *testing.T) {
	r := newFakeRunner()
	r.on("list --all --limit 0 --json", `[{"id":"proj-1","status":"closed"}]`)
	c := New(Config{Runner: r})

	issues, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].IsClosed())
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"list", "--all", "--limit", "0", "--json"}, r.calls[0])
}

func TestRunJSONDecodeError(t *testing.T) {
	r := newFakeRunner()
	r.on("list --all --limit 0 --json", "not json")
	c := New(Config{Runner: r})

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode output")
}

func TestDryRun(t *testing.T) {
	r := newFakeRunner()
	r.on("version", "0.49.0")
	r.on("list --all --limit 0 --json", "[]")
	c := New(Config{Runner: r, DryRun: true})
	ctx := context.Background()

	_, err := c.Version(ctx)
	require.NoError(t, err)

	id1, err := c.Create(ctx, "First", CreateOptions{Type: types.TypeTask})
	require.NoError(t, err)
	id2, err := c.Create(ctx, "Second", CreateOptions{Type: types.TypeTask})
	require.NoError(t, err)
	assert.Equal(t, "dry-run-1", id1)
	assert.Equal(t, "dry-run-2", id2)

	require.NoError(t, c.AddBlocker(ctx, id2, id1))
	require.NoError(t, c.Close(ctx, id1))
	require.NoError(t, c.AddLabel(ctx, id1, "x"))
	require.NoError(t, c.Init(ctx, ""))

	_, err = c.List(ctx)
	require.NoError(t, err)

	// Only the read-only commands reached the runner.
	assert.Equal(t, [][]string{{"version"}, {"list", "--all", "--limit", "0", "--json"}}, r.calls)
}

// blockingRunner waits for the context like a hung process would.
type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, dir, path string, args []string) ([]byte, []byte, error) {
	<-ctx.Done()
	return []byte("partial"), nil, ctx.Err()
}

func TestTimeout(t *testing.T) {
	c := New(Config{Runner: blockingRunner{}, Timeout: 20 * time.Millisecond})

	_, err := c.Run(context.Background(), "list", "--json")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.True(t, cmdErr.TimedOut)
	assert.Equal(t, "partial", cmdErr.Stdout)
	assert.Contains(t, err.Error(), "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelIsNotTimeout(t *testing.T) {
	c := New(Config{Runner: blockingRunner{}, Timeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx, "list")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.False(t, cmdErr.TimedOut)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCreatedID(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{"json", `{"id":"proj-a3f8","title":"x"}`, "proj-a3f8", false},
		{"json dry run", `{"id":"dry-run-3"}`, "dry-run-3", false},
		{"text", "✓ Created issue: proj-a3f8.2.1\n", "proj-a3f8.2.1", false},
		{"json without id falls back to text", `{"issue":"bd-x9"}`, "bd-x9", false},
		{"nothing", "done\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreatedID(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateOutput(t *testing.T) {
	assert.Equal(t, "short", truncateOutput([]byte("short")))
	long := strings.Repeat("a", maxOutputBytes+10)
	assert.Equal(t, maxOutputBytes+len("…"), len(truncateOutput([]byte(long))))
}
