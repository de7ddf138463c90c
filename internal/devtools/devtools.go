// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package devtools contains common functionality for development tools.
package devtools

import (
	"fmt"
	"os"
	"path/filepath"

	"go.astrophena.name/base/unwrap"
)

// rootMarkers are present at the root of the blog repository.
var rootMarkers = []string{".git", "go.mod", "siteconf.star"}

// EnsureRoot checks that the current working directory is at the repository
// root and panics if it doesn't.
func EnsureRoot() {
	wd := unwrap.Value(os.Getwd())
	for _, name := range rootMarkers {
		if _, err := os.Stat(filepath.Join(wd, name)); os.IsNotExist(err) {
			panic(fmt.Sprintf("%s not found in %s. Are you at repo root?", name, wd))
		} else if err != nil {
			panic(err)
		}
	}
}
