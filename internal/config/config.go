package config

import (
	"maps"
	"slices"
	"strings"

	"hmi-service/internal/types"
)

// Load builds the immutable HMI config from the modes tree and the optional
// YAML registry.
func Load(modesPath, registryPath string) (*Config, error) {
	modes, err := LoadModes(modesPath)
	if err != nil {
		return nil, err
	}
	reg, err := LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	return build(modesPath, modes, reg)
}

func build(modesPath string, modes map[string]Mode, reg *Registry) (*Config, error) {
	const op = "load config"

	cfg := &Config{
		ModesPath: modesPath,
		Modes:     modes,
		Maps:      map[string]string{},
		Vehicles:  map[string]string{},
		Modules:   orEmpty(reg.Modules),
		Hardware:  orEmpty(reg.Hardware),
		Tools:     orEmpty(reg.Tools),
		Launcher:  reg.Launcher,
	}
	if cfg.Launcher.Command == "" {
		cfg.Launcher.Command = DefaultLauncher
	}
	if cfg.Launcher.Timeout == 0 {
		cfg.Launcher.Timeout = DefaultCommandTimeout
	}

	if reg.MapsDir != "" {
		found, err := listSubdirs(reg.MapsDir)
		if err != nil {
			return nil, types.ConfigErrorf(op, "maps dir: %v", err)
		}
		maps.Copy(cfg.Maps, found)
	}
	maps.Copy(cfg.Maps, reg.Maps)

	if reg.VehiclesDir != "" {
		found, err := listSubdirs(reg.VehiclesDir)
		if err != nil {
			return nil, types.ConfigErrorf(op, "vehicles dir: %v", err)
		}
		maps.Copy(cfg.Vehicles, found)
	}
	maps.Copy(cfg.Vehicles, reg.Vehicles)

	for name, extra := range reg.Modes {
		mode, ok := cfg.Modes[name]
		if !ok {
			return nil, types.ConfigErrorf(op, "commands given for unknown mode %q", name)
		}
		for cmd, line := range extra.Commands {
			if strings.HasPrefix(cmd, "start ") || strings.HasPrefix(cmd, "stop ") {
				return nil, types.ConfigErrorf(op, "mode %q: command name %q is reserved for launches", name, cmd)
			}
			mode.Commands[cmd] = line
		}
	}
	return cfg, nil
}

func orEmpty(m map[string]Target) map[string]Target {
	if m == nil {
		return map[string]Target{}
	}
	return m
}

// Validate reports whether name exists in the given registry.
func (c *Config) Validate(name string, category types.Category) bool {
	var ok bool
	switch category {
	case types.CategoryMode:
		_, ok = c.Modes[name]
	case types.CategoryMap:
		_, ok = c.Maps[name]
	case types.CategoryVehicle:
		_, ok = c.Vehicles[name]
	case types.CategoryHardware:
		_, ok = c.Hardware[name]
	case types.CategoryTool:
		_, ok = c.Tools[name]
	case types.CategoryModule:
		_, ok = c.Modules[name]
	}
	return ok
}

// HasLaunch reports whether launch belongs to mode.
func (c *Config) HasLaunch(mode, launch string) bool {
	m, ok := c.Modes[mode]
	if !ok {
		return false
	}
	_, ok = m.Launches[launch]
	return ok
}

// Targets returns the command table for a dispatch category
func (c *Config) Targets(category types.Category) map[string]Target {
	switch category {
	case types.CategoryModule:
		return c.Modules
	case types.CategoryHardware:
		return c.Hardware
	case types.CategoryTool:
		return c.Tools
	}
	return nil
}

func (c *Config) ModeNames() []string {
	return slices.Sorted(maps.Keys(c.Modes))
}

// Clone returns a deep copy that callers may keep or modify.
func (c *Config) Clone() Config {
	out := *c
	out.Modes = make(map[string]Mode, len(c.Modes))
	for name, m := range c.Modes {
		out.Modes[name] = Mode{
			Path:     m.Path,
			Launches: maps.Clone(m.Launches),
			Commands: maps.Clone(m.Commands),
		}
	}
	out.Maps = maps.Clone(c.Maps)
	out.Vehicles = maps.Clone(c.Vehicles)
	out.Modules = cloneTargets(c.Modules)
	out.Hardware = cloneTargets(c.Hardware)
	out.Tools = cloneTargets(c.Tools)
	return out
}

func cloneTargets(in map[string]Target) map[string]Target {
	out := make(map[string]Target, len(in))
	for name, t := range in {
		out[name] = Target{Commands: maps.Clone(t.Commands)}
	}
	return out
}
