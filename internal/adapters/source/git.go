package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// gitRepo runs git commands inside a work tree
type gitRepo struct {
	dir string
}

func (g gitRepo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// status lists modified and untracked paths under path
func (g gitRepo) status(ctx context.Context, path string) ([]string, error) {
	out, err := g.run(ctx, "status", "--porcelain", "--untracked-files=all", "--", path)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// resolve turns a tag, branch or hash into a commit hash
func (g gitRepo) resolve(ctx context.Context, revision string) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--verify", "--quiet", revision+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("unknown revision %q", revision)
	}
	return out, nil
}

// restore makes path match commit, removing tracked files absent from it
func (g gitRepo) restore(ctx context.Context, commit, path string) error {
	_, err := g.run(ctx, "restore", "--source="+commit, "--worktree", "--", path)
	return err
}

func (g gitRepo) clean(ctx context.Context, path string) error {
	_, err := g.run(ctx, "clean", "-fdq", "--", path)
	return err
}
