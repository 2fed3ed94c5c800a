package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"hmi-service/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadRegistry reads and validates the YAML registry. An empty path yields
// an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	const op = "load registry"

	reg := &Registry{}
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.ConfigErrorf(op, "read %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, types.ConfigErrorf(op, "parse %s: %v", path, err)
	}
	if err := validate.Struct(reg); err != nil {
		return nil, types.ConfigErrorf(op, "invalid %s: %v", path, err)
	}
	return reg, nil
}
