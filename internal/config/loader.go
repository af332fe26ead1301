package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schema string

var ErrValueNotFound = errors.New("value not found")

// Loader reads CUE config files, validated against the schema. Earlier files
// take precedence over later ones.
type Loader struct {
	getRoots func() ([]rootInfo, error)
}

type rootInfo struct {
	value cue.Value
	path  string
}

// NewLoader creates a loader over filePaths. Files are read on first use.
func NewLoader(filePaths []string) Loader {
	return newLoader(filePaths, schema)
}

func newLoader(filePaths []string, schemaSrc string) Loader {
	return Loader{
		getRoots: sync.OnceValues(func() (ret []rootInfo, err error) {
			ctx := cuecontext.New()

			var schema cue.Value
			if schemaSrc != "" {
				schema = ctx.CompileString("close({" + schemaSrc + "})")
				if err := schema.Err(); err != nil {
					return nil, err
				}
			}

			for _, filePath := range filePaths {
				content, err := os.ReadFile(filePath)
				if err != nil {
					return nil, err
				}

				value := ctx.CompileBytes(
					content,
					cue.Filename(filePath),
				)
				if err = value.Err(); err != nil {
					return nil, err
				}

				if schema.Exists() {
					if err := schema.Unify(value).Validate(); err != nil {
						return nil, err
					}
				}

				ret = append(ret, rootInfo{
					value: value,
					path:  filePath,
				})
			}

			return
		}),
	}
}

// AssignFirst decodes the first value found at path into target
func (l Loader) AssignFirst(path string, target any) error {
	roots, err := l.getRoots()
	if err != nil {
		return err
	}

	cuePath := cue.ParsePath(path)
	for _, info := range roots {
		value := info.value.LookupPath(cuePath)
		if !value.Exists() {
			continue
		}
		if err := value.Decode(target); err != nil {
			return err
		}
		return nil
	}

	return ErrValueNotFound
}

// Paths returns the files this loader reads
func (l Loader) Paths() ([]string, error) {
	roots, err := l.getRoots()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(roots))
	for _, info := range roots {
		paths = append(paths, info.path)
	}
	return paths, nil
}

// Assign is AssignFirst where a missing value leaves target untouched
func Assign(loader Loader, path string, target any) error {
	if err := loader.AssignFirst(path, target); err != nil && !errors.Is(err, ErrValueNotFound) {
		return err
	}
	return nil
}

// Search finds config files: explicit paths first, then conceptplay.cue or
// .conceptplay.cue in the working directory and the user config directory.
func Search(explicit ...string) []string {
	var paths []string
	for _, path := range explicit {
		if path != "" {
			paths = append(paths, path)
		}
	}

	filenames := []string{
		"conceptplay.cue",
		".conceptplay.cue",
	}

	// working directory
	workingDir, err := os.Getwd()
	if err == nil {
		for _, filename := range filenames {
			path := filepath.Join(workingDir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	// user config dir
	configDir, err := os.UserConfigDir()
	if err == nil {
		for _, filename := range filenames {
			path := filepath.Join(configDir, "conceptplay", filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	return paths
}
