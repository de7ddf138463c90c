// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Tasks builds, serves and publishes the blog.

# Usage

	$ go tool tasks [flags] task...

Tasks run in order and stop at the first failure. Available tasks:

	build       build the site with development settings
	clean       remove and recreate the deploy path
	prodbuild   clean, then build the site with publish settings
	push        prodbuild, then publish to GitHub Pages
	rebuild     clean, then build
	regenerate  rebuild the site on every change
	reserve     build, then serve
	serve       serve the deploy path over HTTP

Development settings are read from siteconf.star. Production builds load
publishconf.star on top of them.

push publishes the source branch, commits the generated site to the gh-pages
branch and force-pushes it to the master branch of the deploy remote. The
remote and branch names come from the DEPLOY_REMOTE, SOURCE_BRANCH,
GITHUB_PAGES_BRANCH and DEPLOY_BRANCH settings.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
