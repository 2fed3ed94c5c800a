package config

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"hmi-service/internal/types"
)

// LoadModes reads a modes tree such as
//
//	/path/to/modes/
//	    mkz_standard/
//	        close_loop.launch
//	        map_collection.launch
//
// into {"Mkz Standard": {Launches: {"Close Loop": ..., "Map Collection": ...}}}.
func LoadModes(path string) (map[string]Mode, error) {
	const op = "load modes"

	info, err := os.Stat(path)
	if err != nil {
		return nil, types.ConfigErrorf(op, "modes path %s: %v", path, err)
	}
	if !info.IsDir() {
		return nil, types.ConfigErrorf(op, "modes path %s is not a directory", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, types.ConfigErrorf(op, "read %s: %v", path, err)
	}

	modes := make(map[string]Mode)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		modePath := filepath.Join(path, entry.Name())
		launches, err := loadLaunches(modePath)
		if err != nil {
			return nil, types.ConfigErrorf(op, "read mode %s: %v", modePath, err)
		}
		modes[TitleCase(entry.Name())] = Mode{
			Path:     modePath,
			Launches: launches,
			Commands: map[string]string{},
		}
	}

	if len(modes) == 0 {
		return nil, types.ConfigErrorf(op, "no modes found in %s", path)
	}
	return modes, nil
}

func loadLaunches(modePath string) (map[string]string, error) {
	entries, err := os.ReadDir(modePath)
	if err != nil {
		return nil, err
	}
	launches := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != LaunchFileExt {
			continue
		}
		launches[TitleCase(strings.TrimSuffix(name, LaunchFileExt))] = filepath.Join(modePath, name)
	}
	return launches, nil
}

// listSubdirs registers each subdirectory of dir under its title-cased name
func listSubdirs(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			out[TitleCase(entry.Name())] = filepath.Join(dir, entry.Name())
		}
	}
	return out, nil
}

// TitleCase turns a snake_case file name into a display name: "close_loop" -> "Close Loop".
func TitleCase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
