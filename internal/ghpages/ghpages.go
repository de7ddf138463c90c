// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package ghpages publishes a directory to a git branch for GitHub Pages and
// pushes branches to remotes.
//
// Import commits the contents of a directory as the whole tree of a branch. It
// uses git plumbing with a temporary index, so neither the work tree nor the
// index of the repository change, and the branch doesn't need to be checked
// out.
package ghpages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/trackmaven/engineroom/internal/logger"
)

// Possible errors, used in tests.
var (
	errNotDir = errors.New("not a directory")
	errGit    = errors.New("git command failed")
)

// Repo is a git repository.
type Repo struct {
	// Dir is a directory inside the repository. If empty, uses the current
	// directory.
	Dir string
	// Logf receives the output of git push. If nil, uses log.Printf.
	Logf logger.Logf
	// Env holds additional environment variables for git in the "key=value"
	// form, such as committer identity.
	Env []string
}

// ImportOptions control Import.
type ImportOptions struct {
	// Branch to commit to. If empty, uses "gh-pages".
	Branch string
	// Message is the commit message. If empty, uses "Update site".
	Message string
	// NoJekyll adds an empty .nojekyll file, so GitHub Pages serves files
	// starting with an underscore.
	NoJekyll bool
	// CNAME, if not empty, is written to the CNAME file.
	CNAME string
}

func (o *ImportOptions) setDefaults() {
	if o.Branch == "" {
		o.Branch = "gh-pages"
	}
	if o.Message == "" {
		o.Message = "Update site"
	}
}

// Import commits the contents of src as the tree of a branch and returns the
// commit hash. The previous head of the branch, if any, becomes the parent.
func (r *Repo) Import(ctx context.Context, src string, opts ImportOptions) (string, error) {
	opts.setDefaults()

	fi, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s: %w", src, errNotDir)
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return "", err
	}

	gitDir, err := r.git(ctx, gitCmd{}, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}

	tmp, err := os.MkdirTemp("", "ghpages")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	// All commands below see src as the work tree and an index of their own.
	tree := gitCmd{
		dir: src,
		env: []string{
			"GIT_DIR=" + gitDir,
			"GIT_WORK_TREE=" + src,
			"GIT_INDEX_FILE=" + filepath.Join(tmp, "index"),
		},
	}

	if _, err := r.git(ctx, tree, "add", "--all", "--force", "."); err != nil {
		return "", err
	}

	extra := make(map[string]string)
	if opts.NoJekyll {
		extra[".nojekyll"] = ""
	}
	if opts.CNAME != "" {
		extra["CNAME"] = opts.CNAME
	}
	for name, data := range extra {
		hashCmd := tree
		hashCmd.stdin = strings.NewReader(data)
		blob, err := r.git(ctx, hashCmd, "hash-object", "-w", "--stdin")
		if err != nil {
			return "", err
		}
		if _, err := r.git(ctx, tree, "update-index", "--add", "--cacheinfo", "100644,"+blob+","+name); err != nil {
			return "", err
		}
	}

	treeHash, err := r.git(ctx, tree, "write-tree")
	if err != nil {
		return "", err
	}

	ref := "refs/heads/" + opts.Branch
	parent, err := r.git(ctx, tree, "for-each-ref", "--format=%(objectname)", ref)
	if err != nil {
		return "", err
	}

	args := []string{"commit-tree", treeHash}
	if parent != "" {
		args = append(args, "-p", parent)
	}
	args = append(args, "-m", opts.Message)
	commit, err := r.git(ctx, tree, args...)
	if err != nil {
		return "", err
	}

	// Passing the old value makes update-ref fail if the branch moved
	// meanwhile.
	args = []string{"update-ref", "-m", "ghpages: " + opts.Message, ref, commit}
	if parent != "" {
		args = append(args, parent)
	}
	if _, err := r.git(ctx, tree, args...); err != nil {
		return "", err
	}
	return commit, nil
}

// Push pushes refspec to remote. Output of git is streamed to Logf.
func (r *Repo) Push(ctx context.Context, remote, refspec string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, refspec)
	_, err := r.git(ctx, gitCmd{stream: logger.Default(r.Logf)}, args...)
	return err
}

type gitCmd struct {
	dir   string    // if empty, uses Repo.Dir
	env   []string  // added to the environment
	stdin io.Reader // if nil, no input
	// stream, if not nil, receives the combined output as it's written.
	stream io.Writer
}

// git runs a git command and returns its trimmed standard output. Errors
// include the command and what it printed.
func (r *Repo) git(ctx context.Context, c gitCmd, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	cmd.Env = append(append(os.Environ(), r.Env...), c.env...)
	cmd.Stdin = c.stdin

	var stdout, combined bytes.Buffer
	if c.stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, &combined, c.stream)
		cmd.Stderr = io.MultiWriter(&combined, c.stream)
	} else {
		cmd.Stdout = io.MultiWriter(&stdout, &combined)
		cmd.Stderr = &combined
	}

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: git %s: %v: %s", errGit, strings.Join(args, " "), err, bytes.TrimSpace(combined.Bytes()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
