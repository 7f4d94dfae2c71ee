package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vovakirdan/luads/internal/registry"
)

// Source is a resolved guest script.
type Source struct {
	// Ref is the reference the script was resolved from.
	Ref string

	// Name is the chunk name shown in error messages.
	Name string

	// Code is the Lua source text.
	Code string

	// Path is the absolute file path, empty for built-in scripts.
	Path string
}

// Builtin reports whether the source came from the registry.
func (s Source) Builtin() bool {
	return s.Path == ""
}

// ResolutionError reports a script reference that could not be turned into
// source text.
type ResolutionError struct {
	Ref string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot load script %q: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolve turns a reference into source text. References of the form
// "demo:<id>" name a registered script; anything else is a file path.
func Resolve(ref string) (Source, error) {
	if strings.TrimSpace(ref) == "" {
		return Source{}, &ResolutionError{Ref: ref, Err: errors.New("empty script reference")}
	}

	if id, ok := strings.CutPrefix(ref, registry.Scheme); ok {
		s, err := registry.Lookup(id)
		if err != nil {
			return Source{}, &ResolutionError{Ref: ref, Err: err}
		}
		return Source{Ref: ref, Name: ref, Code: s.Source}, nil
	}

	path, err := filepath.Abs(ref)
	if err != nil {
		return Source{}, &ResolutionError{Ref: ref, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, &ResolutionError{Ref: ref, Err: err}
	}

	return Source{
		Ref:  ref,
		Name: filepath.Base(path),
		Code: string(data),
		Path: path,
	}, nil
}
