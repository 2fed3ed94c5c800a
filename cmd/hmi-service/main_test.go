package main

import (
	"strings"
	"testing"
)

func TestRootCommandDefaults(t *testing.T) {
	cmd := newRootCommand()

	cases := map[string]string{
		"redis-host":   "127.0.0.1",
		"redis-port":   "6379",
		"log":          "3",
		"metrics-addr": ":9102",
		"config":       "",
	}
	for name, want := range cases {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Errorf("Missing flag --%s", name)
			continue
		}
		if f.DefValue != want {
			t.Errorf("--%s default = %q, want %q", name, f.DefValue, want)
		}
	}
}

func TestRootCommandMissingModes(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--modes", t.TempDir() + "/missing", "--metrics-addr", "", "--log", "0"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error for a missing modes directory")
	}
	if !strings.Contains(err.Error(), "failed to load HMI config") {
		t.Errorf("Unexpected error: %v", err)
	}
}
