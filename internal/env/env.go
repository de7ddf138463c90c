// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package env contains definitions for the environments in which the blog can
// be built.
package env

// Env is the environment in which the blog is built.
type Env string

// Available environments.
const (
	// Dev builds with development settings only. Drafts are rendered.
	Dev = Env("dev")
	// Prod builds with development settings overlaid by publish settings.
	// Drafts are skipped.
	Prod = Env("prod")
)

// IsProd reports whether e is the production environment.
func (e Env) IsProd() bool { return e == Prod }

func (e Env) String() string { return string(e) }
