// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ResourceConfig provisions one ledger row. Unit, CostPerUnit, and
// Priority are optional; NewManager fills defaults (CostPerUnit 1,
// Priority medium).
type ResourceConfig struct {
	Type        string  `yaml:"type" validate:"required"`
	Total       float64 `yaml:"total" validate:"gt=0"`
	Unit        string  `yaml:"unit"`
	CostPerUnit float64 `yaml:"cost_per_unit" validate:"gte=0"`
	Priority    string  `yaml:"priority" validate:"omitempty,oneof=high medium low"`
}

// Config is the budget manager's startup configuration.
type Config struct {
	Resources   []ResourceConfig `yaml:"resources" validate:"required,min=1,dive"`
	Constraints Constraints      `yaml:"constraints"`
}

// DefaultConfig provisions a modest pool for callers without a config
// file.
func DefaultConfig() Config {
	return Config{
		Resources: []ResourceConfig{
			{Type: ResourceCPU, Total: 1000, Unit: "millicores", CostPerUnit: 1, Priority: PriorityHigh},
			{Type: ResourceMemory, Total: 4096, Unit: "MB", CostPerUnit: 1, Priority: PriorityHigh},
			{Type: ResourceStorage, Total: 10240, Unit: "MB", CostPerUnit: 1, Priority: PriorityLow},
			{Type: ResourceAPICalls, Total: 500, Unit: "calls", CostPerUnit: 1, Priority: PriorityMedium},
		},
	}
}

// LoadConfig reads and validates a YAML resource-pool configuration.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read budget config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's struct tags and uniqueness.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	seen := map[string]bool{}
	for _, r := range c.Resources {
		if seen[r.Type] {
			return fmt.Errorf("%w: duplicate resource type %q", ErrInvalidConfig, r.Type)
		}
		seen[r.Type] = true
	}
	return nil
}
