// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package ghpages

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.astrophena.name/base/testutil"

	"github.com/google/go-cmp/cmp"
)

var gitEnv = []string{
	"GIT_AUTHOR_NAME=Maven",
	"GIT_AUTHOR_EMAIL=maven@example.com",
	"GIT_COMMITTER_NAME=Maven",
	"GIT_COMMITTER_EMAIL=maven@example.com",
	"GIT_CONFIG_NOSYSTEM=1",
	"GIT_CONFIG_GLOBAL=" + os.DevNull,
}

// newRepo creates a repository with one commit on the source branch.
func newRepo(t *testing.T) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	r := &Repo{Dir: t.TempDir(), Logf: t.Logf, Env: gitEnv}
	gitT(t, r, "init", "--quiet", "--initial-branch=source")
	writeFiles(t, r.Dir, map[string]string{
		"siteconf.star":  "SITENAME = 'The Engine Room'\n",
		"content/a.md":   "Title: A\n",
		".gitignore":     "output/\n",
		"content/b.html": "<title>B</title>",
	})
	gitT(t, r, "add", ".")
	gitT(t, r, "commit", "--quiet", "-m", "Initial commit")
	return r
}

func gitT(t *testing.T, r *Repo, args ...string) string {
	t.Helper()
	out, err := r.git(t.Context(), gitCmd{}, args...)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func lsTree(t *testing.T, r *Repo, rev string) []string {
	t.Helper()
	files := strings.Split(gitT(t, r, "ls-tree", "-r", "--name-only", rev), "\n")
	slices.Sort(files)
	return files
}

func TestImport(t *testing.T) {
	r := newRepo(t)

	out := filepath.Join(r.Dir, "output")
	writeFiles(t, out, map[string]string{
		"index.html":         "<h1>Hello</h1>",
		"_static/site.css":   "body {}",
		"theme/css/main.css": "p {}",
	})
	statusBefore := gitT(t, r, "status", "--porcelain")

	commit, err := r.Import(t.Context(), out, ImportOptions{
		NoJekyll: true,
		CNAME:    "engineroom.trackmaven.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, gitT(t, r, "rev-parse", "gh-pages"), commit)
	want := []string{".nojekyll", "CNAME", "_static/site.css", "index.html", "theme/css/main.css"}
	if diff := cmp.Diff(want, lsTree(t, r, "gh-pages")); diff != "" {
		t.Errorf("gh-pages tree mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertEqual(t, gitT(t, r, "show", "gh-pages:CNAME"), "engineroom.trackmaven.com")
	testutil.AssertEqual(t, gitT(t, r, "log", "-1", "--format=%s", "gh-pages"), "Update site")

	// Neither the checked out branch nor the work tree change.
	testutil.AssertEqual(t, gitT(t, r, "rev-parse", "--abbrev-ref", "HEAD"), "source")
	testutil.AssertEqual(t, gitT(t, r, "status", "--porcelain"), statusBefore)

	// The second import is parented on the first and removes deleted files.
	if err := os.Remove(filepath.Join(out, "_static", "site.css")); err != nil {
		t.Fatal(err)
	}
	second, err := r.Import(t.Context(), out, ImportOptions{Message: "Second"})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, gitT(t, r, "rev-parse", second+"^"), commit)
	want = []string{"index.html", "theme/css/main.css"}
	if diff := cmp.Diff(want, lsTree(t, r, "gh-pages")); diff != "" {
		t.Errorf("gh-pages tree mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertEqual(t, gitT(t, r, "log", "-1", "--format=%s", "gh-pages"), "Second")
}

func TestImportErrors(t *testing.T) {
	r := newRepo(t)

	cases := map[string]struct {
		src     string
		wantErr error
	}{
		"file": {
			src:     filepath.Join(r.Dir, "siteconf.star"),
			wantErr: errNotDir,
		},
		"missing": {
			src:     filepath.Join(r.Dir, "nope"),
			wantErr: os.ErrNotExist,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Import(t.Context(), tc.src, ImportOptions{})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want error %v, got %v", tc.wantErr, err)
			}
		})
	}

	// Outside of a repository.
	outside := &Repo{Dir: t.TempDir(), Env: append(slices.Clone(gitEnv), "GIT_CEILING_DIRECTORIES="+os.TempDir())}
	if _, err := outside.Import(t.Context(), outside.Dir, ImportOptions{}); !errors.Is(err, errGit) {
		t.Fatalf("want error %v, got %v", errGit, err)
	}
}

func TestPush(t *testing.T) {
	r := newRepo(t)

	remote := t.TempDir()
	gitT(t, &Repo{Dir: remote, Env: gitEnv}, "init", "--quiet", "--bare")
	gitT(t, r, "remote", "add", "origin", remote)

	out := filepath.Join(r.Dir, "output")
	writeFiles(t, out, map[string]string{"index.html": "v1"})
	first, err := r.Import(t.Context(), out, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Push(t.Context(), "origin", "source:source", false); err != nil {
		t.Fatal(err)
	}
	if err := r.Push(t.Context(), "origin", "gh-pages:master", true); err != nil {
		t.Fatal(err)
	}
	bare := &Repo{Dir: remote, Env: gitEnv}
	testutil.AssertEqual(t, gitT(t, bare, "rev-parse", "master"), first)
	testutil.AssertEqual(t, gitT(t, bare, "rev-parse", "source"), gitT(t, r, "rev-parse", "source"))

	// Rewritten history needs force.
	gitT(t, r, "branch", "-D", "gh-pages")
	writeFiles(t, out, map[string]string{"index.html": "v2"})
	second, err := r.Import(t.Context(), out, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Push(t.Context(), "origin", "gh-pages:master", false); !errors.Is(err, errGit) {
		t.Fatalf("non-fast-forward push: want error %v, got %v", errGit, err)
	}
	if err := r.Push(t.Context(), "origin", "gh-pages:master", true); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, gitT(t, bare, "rev-parse", "master"), second)
}
