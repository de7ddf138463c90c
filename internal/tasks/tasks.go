// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package tasks implements the blog maintenance tasks: building, serving and
// publishing the site.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/trackmaven/engineroom/internal/env"
	"github.com/trackmaven/engineroom/internal/ghpages"
	"github.com/trackmaven/engineroom/internal/logger"
	"github.com/trackmaven/engineroom/internal/settings"
	"github.com/trackmaven/engineroom/internal/site"

	baselogger "go.astrophena.name/base/logger"
)

// Possible errors, used in tests.
var (
	errUnknownTask = errors.New("unknown task")
	errNoTasks     = errors.New("no tasks to run")
)

// Config configures a Runner.
type Config struct {
	// Root is the repository root. If empty, uses the current directory.
	Root string
	// Settings is the development settings file, relative to Root. If empty,
	// uses siteconf.star.
	Settings string
	// PublishSettings is the settings file loaded over Settings for
	// production builds. If empty, uses publishconf.star.
	PublishSettings string
	// DeployPath is the directory the site is generated into, relative to
	// Root. If empty, uses output.
	DeployPath string
	// Listen is the address serve listens on. If empty, uses localhost:8000.
	Listen string
	// Getenv is used by the env builtin of settings files. If nil, uses
	// os.Getenv.
	Getenv func(string) string
	// Logf receives output of git. If nil, uses log.Printf.
	Logf logger.Logf
	// GitEnv holds additional environment variables for git.
	GitEnv []string
}

func (c *Config) setDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.Settings == "" {
		c.Settings = "siteconf.star"
	}
	if c.PublishSettings == "" {
		c.PublishSettings = "publishconf.star"
	}
	if c.DeployPath == "" {
		c.DeployPath = "output"
	}
	if c.Listen == "" {
		c.Listen = "localhost:8000"
	}
	if c.Getenv == nil {
		c.Getenv = os.Getenv
	}
}

// Runner runs tasks.
type Runner struct {
	c     Config
	tasks map[string]task

	// used in tests
	serve func(ctx context.Context, dir, addr string) error
	watch func(ctx context.Context, paths []string, exclude string, rebuild func(context.Context) error) error
}

type task struct {
	doc string
	run func(ctx context.Context) error
}

// New returns a Runner for c.
func New(c Config) *Runner {
	c.setDefaults()
	r := &Runner{
		c:     c,
		serve: site.Serve,
		watch: site.Watch,
	}
	r.tasks = map[string]task{
		"clean":      {"remove and recreate the deploy path", r.clean},
		"build":      {"build the site with development settings", r.build},
		"rebuild":    {"clean, then build", r.rebuild},
		"regenerate": {"rebuild the site on every change", r.regenerate},
		"serve":      {"serve the deploy path over HTTP", r.serveTask},
		"reserve":    {"build, then serve", r.reserve},
		"prodbuild":  {"clean, then build the site with publish settings", r.prodbuild},
		"push":       {"prodbuild, then publish to GitHub Pages", r.push},
	}
	return r
}

// Names returns names of all tasks in lexical order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Usage describes all tasks, one per line.
func (r *Runner) Usage() string {
	var sb strings.Builder
	for _, name := range r.Names() {
		fmt.Fprintf(&sb, "  %-11s %s\n", name, r.tasks[name].doc)
	}
	return sb.String()
}

// Run runs tasks by name, in order. It stops at the first failing task.
// Unknown names are reported before anything runs.
func (r *Runner) Run(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return errNoTasks
	}
	for _, name := range names {
		if _, ok := r.tasks[name]; !ok {
			return fmt.Errorf("%w %q, available tasks: %s", errUnknownTask, name, strings.Join(r.Names(), ", "))
		}
	}
	for _, name := range names {
		baselogger.Info(ctx, "running task", slog.String("task", name))
		if err := r.tasks[name].run(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (r *Runner) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.c.Root, p)
}

func (r *Runner) deployPath() string { return r.path(r.c.DeployPath) }

func (r *Runner) clean(ctx context.Context) error {
	dir := r.deployPath()
	fi, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !fi.IsDir()) {
		return nil
	} else if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.Mkdir(dir, 0o755)
}

func (r *Runner) build(ctx context.Context) error {
	_, err := r.generate(ctx, env.Dev)
	return err
}

func (r *Runner) rebuild(ctx context.Context) error {
	if err := r.clean(ctx); err != nil {
		return err
	}
	return r.build(ctx)
}

func (r *Runner) regenerate(ctx context.Context) error {
	s, err := r.loadSettings(ctx, env.Dev)
	if err != nil {
		return err
	}
	paths := []string{r.path(s.Path), r.path(r.c.Settings)}
	if s.Theme != "" {
		paths = append(paths, r.path(s.Theme))
	}
	return r.watch(ctx, paths, r.deployPath(), func(ctx context.Context) error {
		_, err := r.generate(ctx, env.Dev)
		return err
	})
}

func (r *Runner) serveTask(ctx context.Context) error {
	return r.serve(ctx, r.deployPath(), r.c.Listen)
}

func (r *Runner) reserve(ctx context.Context) error {
	if err := r.build(ctx); err != nil {
		return err
	}
	return r.serveTask(ctx)
}

func (r *Runner) prodbuild(ctx context.Context) error {
	_, err := r.prod(ctx)
	return err
}

func (r *Runner) prod(ctx context.Context) (*settings.Settings, error) {
	if err := r.clean(ctx); err != nil {
		return nil, err
	}
	return r.generate(ctx, env.Prod)
}

func (r *Runner) push(ctx context.Context) error {
	s, err := r.prod(ctx)
	if err != nil {
		return err
	}

	repo := &ghpages.Repo{Dir: r.c.Root, Logf: r.c.Logf, Env: r.c.GitEnv}
	if err := repo.Push(ctx, s.DeployRemote, s.SourceBranch+":"+s.SourceBranch, false); err != nil {
		return err
	}
	commit, err := repo.Import(ctx, r.deployPath(), ghpages.ImportOptions{
		Branch:   s.GitHubPagesBranch,
		Message:  s.GitHubPagesMessage,
		NoJekyll: s.GitHubPagesNoJekyll,
	})
	if err != nil {
		return err
	}
	baselogger.Info(ctx, "committed site",
		slog.String("branch", s.GitHubPagesBranch),
		slog.String("commit", commit),
	)
	return repo.Push(ctx, s.DeployRemote, s.GitHubPagesBranch+":"+s.DeployBranch, true)
}

// loadSettings loads development settings, overlaid with publish settings in
// production.
func (r *Runner) loadSettings(ctx context.Context, e env.Env) (*settings.Settings, error) {
	files := []string{r.path(r.c.Settings)}
	if e.IsProd() {
		files = append(files, r.path(r.c.PublishSettings))
	}
	return settings.LoadOptions(ctx, &settings.Options{Getenv: r.c.Getenv}, files...)
}

// generate builds the site into the deploy path and writes the CNAME file.
func (r *Runner) generate(ctx context.Context, e env.Env) (*settings.Settings, error) {
	s, err := r.loadSettings(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := site.Build(ctx, &site.Config{
		Settings: s,
		Root:     r.c.Root,
		Dst:      r.deployPath(),
		Env:      e,
	}); err != nil {
		return nil, err
	}
	if s.CNAME != "" {
		cname := filepath.Join(r.deployPath(), "CNAME")
		if err := os.WriteFile(cname, []byte(s.CNAME+"\n"), 0o644); err != nil {
			return nil, err
		}
	}
	return s, nil
}
