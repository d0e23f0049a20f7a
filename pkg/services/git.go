package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Git runs git commands against the content repository.
type Git struct {
	Dir       string
	Remote    string
	Branch    string
	UserName  string
	UserEmail string
	Logger    *zap.Logger
}

func (g *Git) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func (g *Git) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	return cmd
}

// authenticatedURL embeds an OAuth token into an https remote URL.
func authenticatedURL(remoteURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(remoteURL))
	if err != nil {
		return "", fmt.Errorf("invalid remote url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("remote %q does not use http(s)", u.Redacted())
	}
	u.User = url.UserPassword("oauth2", token)
	return u.String(), nil
}

func redact(output, token, authenticated, remote string) string {
	if authenticated != "" {
		output = strings.ReplaceAll(output, authenticated, remote)
	}
	if token != "" {
		output = strings.ReplaceAll(output, token, "***")
	}
	return output
}

// ExecuteWithToken runs git with every occurrence of the remote name in args
// replaced by the token-bearing remote URL. The token never reaches the log.
func (g *Git) ExecuteWithToken(ctx context.Context, token string, args ...string) (string, error) {
	out, err := g.command(ctx, "remote", "get-url", g.Remote).Output()
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteURL := strings.TrimSpace(string(out))
	authURL, err := authenticatedURL(remoteURL, token)
	if err != nil {
		return "Invalid remote url", err
	}

	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == g.Remote {
			newArgs[i] = authURL
		}
	}

	output, err := g.command(ctx, newArgs...).CombinedOutput()
	safeLog := redact(string(output), token, authURL, remoteURL)
	if err != nil {
		g.logger().Warn("git command failed", zap.String("command", args[0]), zap.String("output", safeLog))
	}
	return safeLog, err
}

func (g *Git) Sync(ctx context.Context, token string) (string, error) {
	return g.ExecuteWithToken(ctx, token, "pull", g.Remote, g.Branch)
}

func (g *Git) Publish(ctx context.Context, token string) (string, error) {
	if out, err := g.command(ctx, "add", ".").CombinedOutput(); err != nil {
		return string(out), err
	}
	msg := fmt.Sprintf("Update via article-cms: %s", time.Now().Format("2006-01-02 15:04:05"))
	commit := g.command(ctx,
		"-c", "user.name="+g.UserName,
		"-c", "user.email="+g.UserEmail,
		"commit", "-m", msg,
	)
	if out, err := commit.CombinedOutput(); err != nil {
		// Nothing to commit is fine; the push still sends earlier commits.
		g.logger().Debug("git commit skipped", zap.String("output", string(out)))
	}
	return g.ExecuteWithToken(ctx, token, "push", g.Remote, g.Branch)
}

// Diff compares the saved and edited versions of an article. It reports the
// unsaved changes when there are any, otherwise the uncommitted git changes.
func (g *Git) Diff(ctx context.Context, f1Path, f2Path, relPath string) (string, string) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--no-index", f1Path, f2Path)
	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		diffStr := string(output)
		diffStr = strings.ReplaceAll(diffStr, f1Path, "Saved (Normalized)")
		diffStr = strings.ReplaceAll(diffStr, f2Path, "Editor")
		return diffStr, "unsaved"
	}

	outGit, err := g.command(ctx, "diff", "HEAD", "--", relPath).Output()
	if err == nil && len(outGit) > 0 {
		return string(outGit), "git"
	}
	return "", "none"
}

// DirtyFiles lists repository paths with uncommitted changes.
func (g *Git) DirtyFiles(ctx context.Context) (map[string]bool, error) {
	out, err := g.command(ctx, "status", "--porcelain", "--untracked-files=all").Output()
	if err != nil {
		return nil, err
	}
	return parsePorcelain(string(out)), nil
}

func parsePorcelain(out string) map[string]bool {
	dirty := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		// Renames are reported as "old -> new".
		if _, after, ok := strings.Cut(path, " -> "); ok {
			path = after
		}
		dirty[strings.Trim(path, "\"")] = true
	}
	return dirty
}
