package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var locales embed.FS

// Namespace of the bundled messages.
const Namespace = "messages"

// WithDefaults loads the bundled en, fr and rw messages.
func WithDefaults() Option {
	sub, err := fs.Sub(locales, "locales")
	if err != nil {
		return func(*I18n) error { return err }
	}
	return WithDir(sub)
}

// WithDir loads every {lang}/{namespace}.yaml, .yml or .json file under
// the root of fsys. Files elsewhere are ignored.
//
//	fr/messages.yaml
//	rw/messages.json
func WithDir(fsys fs.FS) Option {
	return func(i *I18n) error {
		return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			var unmarshal func([]byte, any) error
			switch strings.ToLower(path.Ext(name)) {
			case ".yaml", ".yml":
				unmarshal = yaml.Unmarshal
			case ".json":
				unmarshal = json.Unmarshal
			default:
				return nil
			}

			dir := path.Dir(name)
			if dir == "." {
				return fmt.Errorf("%w: %s is not inside a language directory", ErrInvalidFile, name)
			}
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("i18n: read %s: %w", name, err)
			}
			var tree map[string]any
			if err := unmarshal(data, &tree); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidFile, name, err)
			}
			ns := strings.TrimSuffix(path.Base(name), path.Ext(name))
			return i.add(path.Base(dir), ns, tree)
		})
	}
}
