package config

import "time"

const (
	LaunchFileExt         = ".launch"
	DefaultLauncher       = "scripts/cyber_launch.sh"
	DefaultCommandTimeout = 30 * time.Second
)

// Mode is one operating profile: a directory of launch files plus optional
// named commands (setup, reset, ...) from the registry.
type Mode struct {
	Path     string
	Launches map[string]string // launch name -> launch file
	Commands map[string]string // command name -> shell command line
}

// Target is a module, hardware or tool entry with its named commands
type Target struct {
	Commands map[string]string `yaml:"commands" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

type Launcher struct {
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type ModeCommands struct {
	Commands map[string]string `yaml:"commands" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// Registry is the YAML side of the configuration
type Registry struct {
	Launcher    Launcher                `yaml:"launcher"`
	MapsDir     string                  `yaml:"maps_dir"`
	VehiclesDir string                  `yaml:"vehicles_dir"`
	Maps        map[string]string       `yaml:"maps" validate:"omitempty,dive,keys,required,endkeys,required"`
	Vehicles    map[string]string       `yaml:"vehicles" validate:"omitempty,dive,keys,required,endkeys,required"`
	Modules     map[string]Target       `yaml:"modules" validate:"omitempty,dive,keys,required,endkeys,required"`
	Hardware    map[string]Target       `yaml:"hardware" validate:"omitempty,dive,keys,required,endkeys,required"`
	Tools       map[string]Target       `yaml:"tools" validate:"omitempty,dive,keys,required,endkeys,required"`
	Modes       map[string]ModeCommands `yaml:"modes" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	ModesPath string
	Modes     map[string]Mode
	Maps      map[string]string
	Vehicles  map[string]string
	Modules   map[string]Target
	Hardware  map[string]Target
	Tools     map[string]Target
	Launcher  Launcher
}
