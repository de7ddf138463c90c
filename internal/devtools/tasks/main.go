// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/trackmaven/engineroom/internal/devtools"
	"github.com/trackmaven/engineroom/internal/tasks"

	"go.astrophena.name/base/cli"
)

func main() { cli.Main(new(app)) }

type app struct {
	settings        string
	publishSettings string
	output          string
	listen          string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.settings, "settings", "siteconf.star", "Read development settings from `file`.")
	fs.StringVar(&a.publishSettings, "publish", "publishconf.star", "Read publish settings from `file`.")
	fs.StringVar(&a.output, "o", "output", "Generate the site into `dir`.")
	fs.StringVar(&a.listen, "listen", "localhost:8000", "Serve on `host:port`.")
}

func (a *app) Run(ctx context.Context) error {
	devtools.EnsureRoot()

	env := cli.GetEnv(ctx)
	r := tasks.New(tasks.Config{
		Settings:        a.settings,
		PublishSettings: a.publishSettings,
		DeployPath:      a.output,
		Listen:          a.listen,
		Getenv:          env.Getenv,
	})
	if len(env.Args) == 0 {
		return fmt.Errorf("%w: specify tasks to run, one of: %s", cli.ErrInvalidArgs, strings.Join(r.Names(), ", "))
	}
	return r.Run(ctx, env.Args...)
}
