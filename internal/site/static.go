// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/trackmaven/engineroom/internal/content"

	"go.astrophena.name/base/logger"
)

// planStatic registers theme static files under THEME_STATIC_DIR and the
// files of STATIC_PATHS.
func (b *builder) planStatic(ctx context.Context) error {
	err := fs.WalkDir(b.theme.static, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || content.IsIgnorable(p) {
			return nil
		}
		return b.add(path.Join(b.s.ThemeStaticDir, p), "theme "+p, func() ([]byte, error) {
			return fs.ReadFile(b.theme.static, p)
		})
	})
	if err != nil {
		return err
	}

	contentDir := b.c.resolve(b.s.Path)
	for _, sp := range b.s.StaticPaths {
		root := filepath.Join(contentDir, filepath.FromSlash(sp))
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			logger.Info(ctx, "static path does not exist", slog.String("path", sp))
			continue
		}
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if content.IsIgnorable(p) {
				return nil
			}
			rel, err := filepath.Rel(contentDir, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			dst := rel
			if md, ok := b.s.ExtraPathMetadata[rel]; ok {
				dst = md.Path
			}
			return b.add(dst, rel, func() ([]byte, error) {
				return os.ReadFile(p)
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}
