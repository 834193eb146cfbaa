package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
)

type phraseFile struct {
	OpeningPhrases []string `yaml:"opening_phrases"`
}

// loadOpeningPhrases reads the greeting pool override. Blank entries are
// dropped; an empty pool is an error.
func loadOpeningPhrases(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opening phrases: %w", err)
	}
	var f phraseFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse opening phrases %s: %w", path, err)
	}

	phrases := make([]string, 0, len(f.OpeningPhrases))
	for _, p := range f.OpeningPhrases {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) == 0 {
		return nil, fmt.Errorf("opening phrases %s: no phrases defined", path)
	}
	return phrases, nil
}

type seedFile struct {
	Products []model.ProductItem `yaml:"products"`
}

// readSeedFile parses a product seed file and validates every item.
func readSeedFile(path string) ([]model.ProductItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("seed file %s: no products", path)
	}

	var errs []error
	seen := make(map[int]bool, len(f.Products))
	for i, item := range f.Products {
		if err := item.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("product #%d: %w", i+1, err))
			continue
		}
		if seen[item.ProductID] {
			errs = append(errs, fmt.Errorf("product #%d: duplicate Product_ID %d", i+1, item.ProductID))
		}
		seen[item.ProductID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Products, nil
}
