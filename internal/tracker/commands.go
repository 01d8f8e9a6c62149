package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// createdIDRe matches a tracker ID such as "proj-a3f8" or "proj-a3f8.2.1".
var createdIDRe = regexp.MustCompile(`(?i)\b([a-z][a-z0-9_]*-[a-z0-9]+(?:\.\d+)*)\b`)

// ParseCreatedID extracts the new issue ID from "bd create" output: the "id"
// field of a JSON object first, else the first ID-shaped token.
func ParseCreatedID(output string) (string, error) {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") {
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(trimmed), &created); err == nil && created.ID != "" {
			return created.ID, nil
		}
	}
	if m := createdIDRe.FindStringSubmatch(trimmed); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("no issue ID in create output %q", trimmed)
}

// Version returns the trimmed output of "bd version".
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, CheckTimeout, []string{"version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CreateOptions are the optional flags of "bd create".
type CreateOptions struct {
	Type   types.IssueType
	Parent string
	Labels []string
}

// Create creates an issue and returns its ID.
func (c *Client) Create(ctx context.Context, title string, opts CreateOptions) (string, error) {
	args := []string{"create", title}
	if opts.Type != "" {
		args = append(args, "--type", string(opts.Type))
	}
	if opts.Parent != "" {
		args = append(args, "--parent", opts.Parent)
	}
	for _, label := range opts.Labels {
		args = append(args, "--label", label)
	}
	args = append(args, "--json")

	out, err := c.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return ParseCreatedID(out)
}

// AddBlocker records that blocker must be resolved before blocked.
func (c *Client) AddBlocker(ctx context.Context, blocked, blocker string) error {
	_, err := c.Run(ctx, "dep", "add", blocked, blocker, "--type", string(types.DepBlocks))
	return err
}

// Close closes an issue.
func (c *Client) Close(ctx context.Context, id string) error {
	_, err := c.Run(ctx, "close", id)
	return err
}

// AddLabel adds a label to an issue.
func (c *Client) AddLabel(ctx context.Context, id, label string) error {
	_, err := c.Run(ctx, "label", "add", id, label)
	return err
}

// RemoveLabel removes a label from an issue.
func (c *Client) RemoveLabel(ctx context.Context, id, label string) error {
	_, err := c.Run(ctx, "label", "remove", id, label)
	return err
}

// Init initializes a tracker store in the client's directory.
func (c *Client) Init(ctx context.Context, prefix string) error {
	args := []string{"init", "--quiet"}
	if prefix != "" {
		args = append(args, "--prefix", prefix)
	}
	_, err := c.Run(ctx, args...)
	return err
}

// listArgs asks for every issue. A bare "bd list" hides closed issues and
// stops at its default limit.
var listArgs = []string{"list", "--all", "--limit", "0", "--json"}

// List returns every issue known to the tracker, closed ones included.
func (c *Client) List(ctx context.Context) ([]types.TrackerIssue, error) {
	var issues []types.TrackerIssue
	if err := c.RunJSON(ctx, &issues, listArgs...); err != nil {
		return nil, err
	}
	return issues, nil
}

// Show returns a single issue. bd prints either an object or a one-element array.
func (c *Client) Show(ctx context.Context, id string) (*types.TrackerIssue, error) {
	out, err := c.Run(ctx, "show", id, "--json")
	if err != nil {
		return nil, err
	}
	data := bytes.TrimSpace([]byte(out))
	if bytes.HasPrefix(data, []byte("[")) {
		var issues []types.TrackerIssue
		if err := json.Unmarshal(data, &issues); err != nil {
			return nil, fmt.Errorf("failed to decode show output for %s: %w", id, err)
		}
		if len(issues) == 0 {
			return nil, fmt.Errorf("issue %s not found", id)
		}
		return &issues[0], nil
	}
	var issue types.TrackerIssue
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, fmt.Errorf("failed to decode show output for %s: %w", id, err)
	}
	return &issue, nil
}
