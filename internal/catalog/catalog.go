// Package catalog loads the clothing category taxonomy and seeds it into the
// database at boot. A built-in taxonomy is embedded in the binary; a YAML
// file with the same shape can replace it.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/repo"
)

//go:embed categories.yaml
var defaultYAML []byte

var validGenders = map[string]bool{"masculino": true, "femenino": true, "unisex": true}

type yamlFile struct {
	Version    int            `yaml:"version"`
	Categories []yamlCategory `yaml:"categories"`
}

type yamlCategory struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Gender      string `yaml:"gender"`
	Icon        string `yaml:"icon"`
}

// Default returns the embedded taxonomy.
func Default() ([]domain.Category, error) {
	return Parse(defaultYAML)
}

// Load reads a taxonomy file, or the embedded default when path is empty.
func Load(path string) ([]domain.Category, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a taxonomy document. Names must be non-empty
// and unique (case-insensitively); gender defaults to "unisex".
func Parse(data []byte) ([]domain.Category, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("parse categories: no categories defined")
	}

	seen := make(map[string]bool, len(f.Categories))
	out := make([]domain.Category, 0, len(f.Categories))
	for i, c := range f.Categories {
		name := strings.Join(strings.Fields(c.Name), " ")
		if name == "" {
			return nil, fmt.Errorf("category %d: name is empty", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("category %q: duplicate name", name)
		}
		seen[key] = true
		gender := strings.ToLower(strings.TrimSpace(c.Gender))
		if gender == "" {
			gender = "unisex"
		}
		if !validGenders[gender] {
			return nil, fmt.Errorf("category %q: invalid gender %q", name, c.Gender)
		}
		out = append(out, domain.Category{
			ID:          strings.TrimSpace(c.ID),
			Name:        name,
			Description: strings.TrimSpace(c.Description),
			Gender:      gender,
			Icon:        strings.TrimSpace(c.Icon),
		})
	}
	return out, nil
}

// Seed loads the taxonomy from path (or the default) and upserts it by name.
// Existing categories keep their IDs. It returns how many were written.
func Seed(ctx context.Context, db *gorm.DB, path string) (int, error) {
	cats, err := Load(path)
	if err != nil {
		return 0, err
	}
	if err := repo.UpsertCategories(ctx, db, cats); err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	return len(cats), nil
}
