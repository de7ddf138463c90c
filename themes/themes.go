// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package themes contains the bundled theme of The Engine Room.
//
// A theme is a directory with two subdirectories: templates, holding Go
// html/template files, and static, copied verbatim to the generated site.
package themes

import (
	"embed"
	"io/fs"

	"go.astrophena.name/base/unwrap"
)

//go:embed trackmaven/basic
var files embed.FS

// Basic returns the bundled theme.
func Basic() fs.FS {
	return unwrap.Value(fs.Sub(files, "trackmaven/basic"))
}
