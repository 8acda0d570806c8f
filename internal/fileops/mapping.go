package fileops

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefectMapping translates the defect names reported by the AOI machine
// into the canonical names used in repair lists and Kintone records.
type DefectMapping struct {
	Names map[string]string `yaml:"defect_names"`
}

// ReadDefectMapping loads a defect name mapping file. Unlike the CSV
// readers, a missing mapping file is an error: imports without a mapping
// would silently store machine-internal names.
func ReadDefectMapping(path string) (*DefectMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read defect mapping %s: %w", path, err)
	}

	var mapping DefectMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse defect mapping %s: %w", path, err)
	}

	// Entries with an empty side would erase defect names on import.
	for raw, canonical := range mapping.Names {
		if strings.TrimSpace(raw) == "" || strings.TrimSpace(canonical) == "" {
			delete(mapping.Names, raw)
		}
	}

	return &mapping, nil
}

// Canonical returns the mapped name for a machine-reported defect name,
// or the input unchanged when no mapping exists.
func (m *DefectMapping) Canonical(name string) string {
	if m == nil || m.Names == nil {
		return name
	}
	if canonical, ok := m.Names[name]; ok {
		return canonical
	}
	return name
}

// User is one row of the operator list distributed alongside the
// repair station software.
type User struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// ReadUserList loads the operator list CSV. The file is required, an
// inspection station without operators cannot record repairs.
func ReadUserList(path string) ([]User, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read user list %s: %w", path, err)
	}

	rows, index, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		get := fieldGetter(row, index)
		user := User{
			ID:   get("user_id"),
			Name: get("user_name"),
		}
		if err := validate.Struct(user); err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}
