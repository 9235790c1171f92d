package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/outfit"
	"github.com/tbourn/go-closet-backend/internal/repo"
)

func TestDefault_CoversRuleCategories(t *testing.T) {
	cats, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	names := map[string]domain.Category{}
	for _, c := range cats {
		names[c.Name] = c
	}
	for _, want := range []string{"Camisetas", "Pantalones", "Chaquetas", "Chaquetas gruesas", "Abrigos", "Zapatos", "Zapatillas"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("default taxonomy is missing %q", want)
		}
	}
	if names["Vestidos"].Gender != "femenino" || names["Camisetas"].Gender != "unisex" {
		t.Fatalf("genders unexpected: %+v %+v", names["Vestidos"], names["Camisetas"])
	}
	if !outfit.IsFootwear(names["Zapatillas"].Name) {
		t.Fatalf("Zapatillas should count as footwear")
	}
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"not yaml":       "categories: [",
		"empty":          "categories: []",
		"blank name":     "categories:\n  - {name: '  '}",
		"duplicate name": "categories:\n  - {name: Zapatos}\n  - {name: zapatos}",
		"invalid gender": "categories:\n  - {name: Zapatos, gender: other}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	cats, err := Parse([]byte("categories:\n  - {id: c1, name: '  Zapatos   de  vestir ', gender: ' Unisex '}"))
	if err != nil || len(cats) != 1 {
		t.Fatalf("Parse: %+v %v", cats, err)
	}
	if cats[0].ID != "c1" || cats[0].Name != "Zapatos de vestir" || cats[0].Gender != "unisex" {
		t.Fatalf("normalized category unexpected: %+v", cats[0])
	}
}

func TestLoad_FileAndDefault(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read categories") {
		t.Fatalf("missing file should fail, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "cats.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - {name: Kimonos}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cats, err := Load(path)
	if err != nil || len(cats) != 1 || cats[0].Name != "Kimonos" {
		t.Fatalf("Load(file): %+v %v", cats, err)
	}

	def, _ := Default()
	cats, err = Load("  ")
	if err != nil || len(cats) != len(def) {
		t.Fatalf("blank path should load the default: %d %v", len(cats), err)
	}
}

func TestSeed_IsRepeatable(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Category{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()

	n, err := Seed(ctx, db, "")
	if err != nil || n == 0 {
		t.Fatalf("Seed: %d %v", n, err)
	}
	first, _ := repo.ListCategories(ctx, db)

	if _, err := Seed(ctx, db, ""); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	second, _ := repo.ListCategories(ctx, db)
	if len(first) != n || len(second) != n {
		t.Fatalf("seeding twice should not duplicate: %d %d %d", n, len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("category %q changed ID on reseed", first[i].Name)
		}
	}
}
