package config_test

import (
	"fmt"
	"log"
	"time"

	"github.com/ajitpratap0/brainless/pkg/config"
)

// ExampleNewConfig demonstrates creating a configuration with default values.
func ExampleNewConfig() {
	cfg := config.NewConfig()

	fmt.Printf("Folds: %d\n", cfg.Search.Folds)
	fmt.Printf("Seed: %d\n", cfg.Search.Seed)
	fmt.Printf("Max Vocabulary: %d\n", cfg.Features.MaxVocabulary)
	fmt.Printf("Compression: %s\n", cfg.Snapshot.Compression)

	// Output:
	// Folds: 5
	// Seed: 42
	// Max Vocabulary: 1000
	// Compression: zstd
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.NewConfig()

	cfg.Search.Workers = 4
	cfg.Search.Budget = 2 * time.Minute
	cfg.Search.Scoring = "neg_mae"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	cfg.Search.Folds = 1
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// config: search.folds must be at least 2
}

// ExampleSearchConfig_overrides shows how to narrow the model search.
func ExampleSearchConfig_overrides() {
	cfg := config.NewConfig()

	cfg.Search.Families = []string{"ridge", "knn"}
	cfg.Search.Overrides["knn"] = map[string][]float64{"k": {1, 3}}
	cfg.Search.MaxCandidates = 4

	fmt.Printf("Families: %v\n", cfg.Search.Families)
	fmt.Printf("knn grid: %v\n", cfg.Search.Overrides["knn"]["k"])
	fmt.Printf("Budgeted: %v\n", cfg.Search.HasBudget())

	// Output:
	// Families: [ridge knn]
	// knn grid: [1 3]
	// Budgeted: false
}
