package catalog

import (
	"context"
	"regexp"
	"sort"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

var settingNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

// Settings returns every site setting.
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.conn.Table("settings").Select("name", "value").Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.String("name")] = r.String("value")
	}
	return out, nil
}

// Setting returns one setting or ErrSettingMissing.
func (s *Service) Setting(ctx context.Context, name string) (string, error) {
	row, err := s.conn.Table("settings").Select("value").WhereEq("name", name).First(ctx)
	if err != nil {
		return "", notFound(err, ErrSettingMissing)
	}
	return row.String("value"), nil
}

// UpdateSettings upserts values in one transaction. Names must be lower
// snake case.
func (s *Service) UpdateSettings(ctx context.Context, values map[string]string) error {
	names := make([]string, 0, len(values))
	var verrs validator.ValidationErrors
	for name := range values {
		if !settingNamePattern.MatchString(name) {
			verrs.Add(name, "The setting name is invalid.")
			continue
		}
		names = append(names, name)
	}
	if err := verrs.Err(); err != nil {
		return err
	}
	sort.Strings(names)

	now := s.now().UTC()
	return s.conn.Transaction(ctx, func(tx *db.Conn) error {
		for _, name := range names {
			n, err := tx.Update(ctx, "settings",
				map[string]any{"value": values[name], "updated_at": now},
				"name = :name", map[string]any{"name": name},
			)
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			_, err = tx.Exec(ctx,
				"INSERT INTO settings (name, value, updated_at) VALUES (:name, :value, :updated_at)",
				map[string]any{"name": name, "value": values[name], "updated_at": now},
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
