package rowset

import (
	"os"

	"gopkg.in/gomisc/errors.v1"
	"gopkg.in/yaml.v3"
)

// OverridesFile - файл соответствия колонок полям структур
//
//	version: "1"
//	columns:
//	  user_id: ID
//	  e_mail: Email
type OverridesFile struct {
	Version string            `yaml:"version"`
	Columns map[string]string `yaml:"columns"`
}

// LoadOverrides читает соответствие колонок полям из YAML файла
func LoadOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Ctx().Str("path", path).Wrap(err, "read overrides file")
	}

	overrides, err := ParseOverrides(data)
	if err != nil {
		return nil, errors.Ctx().Str("path", path).Wrap(err, "load overrides file")
	}

	return overrides, nil
}

// ParseOverrides разбирает YAML с соответствием колонок полям
func ParseOverrides(data []byte) (map[string]string, error) {
	var file OverridesFile

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parse overrides yaml")
	}

	if file.Columns == nil {
		file.Columns = make(map[string]string)
	}

	return file.Columns, nil
}
