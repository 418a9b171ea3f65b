package cli

import (
	"testing"

	"shopmcp/internal/config"
)

func TestBuildRegistryRegistersEveryProject(t *testing.T) {
	cfg := config.Default()
	cfg.Projects = map[string]config.Project{
		"gdo":      {Database: "./gdo.sqlite", MatchMode: "substring", CategoriesFromDB: true},
		"bricofer": {Database: "./bricofer.sqlite", MatchMode: "exact", ExtraContext: "DIY catalog"},
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "bricofer" || names[1] != "gdo" {
		t.Fatalf("names = %v", names)
	}

	project, err := registry.Resolve("bricofer")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if project.ExtraContext != "DIY catalog" || project.CategoriesFromDB {
		t.Fatalf("project = %+v", project)
	}
	if project.Backend == nil {
		t.Fatalf("project backend not wired")
	}
}

func TestBuildRegistryRejectsDuplicateWiring(t *testing.T) {
	cfg := config.Default()
	cfg.Projects = map[string]config.Project{"shop": {Database: "./shop.sqlite"}}

	registry, err := buildRegistry(cfg)
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	if _, err := registry.Resolve("other"); err == nil {
		t.Fatalf("unknown project must not resolve")
	}
}
