// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package settings

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"unicode"

	"go.astrophena.name/base/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Options customize loading of settings files.
type Options struct {
	// Getenv is used by the env builtin. If nil, os.Getenv is used.
	Getenv func(string) string
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Load executes settings files in order and returns the merged settings.
func Load(ctx context.Context, files ...string) (*Settings, error) {
	return LoadOptions(ctx, nil, files...)
}

// LoadOptions is like [Load], but with custom options.
func LoadOptions(ctx context.Context, opts *Options, files ...string) (*Settings, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	l := &loader{
		ctx:   ctx,
		opts:  opts,
		cache: make(map[string]*loadEntry),
	}

	merged := make(starlark.StringDict)
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		predeclared := l.builtins()
		maps.Copy(predeclared, merged)

		globals, err := l.exec(file, src, predeclared)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, globals)
	}

	converted := make(map[string]any)
	for name, v := range merged {
		if !isSettingName(name) {
			continue
		}
		gv, err := toGo(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		converted[name] = gv
	}

	s, err := fromGlobals(converted)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", files, err)
	}
	s.Files = files
	return s, nil
}

type loader struct {
	ctx   context.Context
	opts  *Options
	cache map[string]*loadEntry
}

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

func (l *loader) builtins() starlark.StringDict {
	return starlark.StringDict{
		"env": starlark.NewBuiltin("env", l.env),
	}
}

func (l *loader) thread(file string) *starlark.Thread {
	thread := &starlark.Thread{
		Name: file,
		Print: func(_ *starlark.Thread, msg string) {
			logger.Info(l.ctx, msg, slog.String("file", file))
		},
		Load: l.load,
	}
	thread.SetLocal("file", file)
	return thread
}

func (l *loader) exec(file string, src []byte, predeclared starlark.StringDict) (starlark.StringDict, error) {
	return starlark.ExecFileOptions(fileOptions, l.thread(file), file, src, predeclared)
}

// load implements the load statement. Modules are resolved relative to the
// file that loads them.
func (l *loader) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	from, _ := thread.Local("file").(string)
	file := module
	if !filepath.IsAbs(file) {
		file = filepath.Join(filepath.Dir(from), module)
	}

	e, ok := l.cache[file]
	if e == nil {
		if ok {
			// A nil entry means the module is being loaded.
			return nil, fmt.Errorf("%w: %s", errLoadCycle, module)
		}
		l.cache[file] = nil

		src, err := os.ReadFile(file)
		if err != nil {
			l.cache[file] = &loadEntry{err: err}
			return nil, err
		}
		globals, err := l.exec(file, src, l.builtins())
		e = &loadEntry{globals: globals, err: err}
		l.cache[file] = e
	}
	return e.globals, e.err
}

func (l *loader) env(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, def string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
		return nil, err
	}
	if v := l.opts.Getenv(name); v != "" {
		return starlark.String(v), nil
	}
	return starlark.String(def), nil
}

// isSettingName reports whether name is an UPPERCASE global.
func isSettingName(name string) bool {
	if name == "" || !unicode.IsUpper(rune(name[0])) {
		return false
	}
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// toGo converts a Starlark value to a value that can be encoded as JSON.
func toGo(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: integer %s is too large", errSettingType, v)
		}
		return i, nil
	case starlark.Float:
		return float64(v), nil
	case starlark.String:
		return string(v), nil
	case *starlark.List:
		return seqToGo(v)
	case starlark.Tuple:
		return seqToGo(v)
	case *starlark.Dict:
		m := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("%w: dict keys must be strings, got %s", errSettingType, item[0].Type())
			}
			gv, err := toGo(item[1])
			if err != nil {
				return nil, err
			}
			m[string(k)] = gv
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", errSettingType, v.Type())
}

func seqToGo(seq starlark.Indexable) ([]any, error) {
	out := make([]any, 0, seq.Len())
	for i := range seq.Len() {
		gv, err := toGo(seq.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, gv)
	}
	return out, nil
}
