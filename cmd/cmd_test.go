package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSendRejectsInvalidCommandsLocally(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"out of range", []string{"mode:7"}, "device would reject"},
		{"malformed", []string{"color:1,2"}, "device would reject"},
		{"unrecognized", []string{"reboot"}, "--force"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CreateSendCmd()
			c.SetArgs(append(tt.args, "--config", ""))
			c.SetOut(&bytes.Buffer{})
			c.SetErr(&bytes.Buffer{})

			err := c.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSendRequiresOneArgument(t *testing.T) {
	c := CreateSendCmd()
	c.SetArgs(nil)
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	if err := c.Execute(); err == nil {
		t.Error("expected an argument count error")
	}
}

func TestSensorSimulatedPrintsStatus(t *testing.T) {
	c := CreateSensorCmd()
	c.SetArgs([]string{"--backend", "sim"})
	c.SetErr(&bytes.Buffer{})

	if err := c.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestSensorUnknownBackend(t *testing.T) {
	c := CreateSensorCmd()
	c.SetArgs([]string{"--backend", "onewire"})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})

	if err := c.Execute(); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func writeSensorConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "climalight.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSensorReadsBackendFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		flags   []string
		wantErr bool
	}{
		{"file backend used", "[sensor]\nbackend = \"onewire\"\n", nil, true},
		{"flag beats file", "[sensor]\nbackend = \"onewire\"\n", []string{"--backend", "sim"}, false},
		{"file selects sim", "[sensor]\nbackend = \"sim\"\n", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CreateSensorCmd()
			c.SetArgs(append([]string{"--config", writeSensorConfig(t, tt.file)}, tt.flags...))
			c.SetOut(&bytes.Buffer{})
			c.SetErr(&bytes.Buffer{})

			err := c.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSensorReadsBackendFromEnv(t *testing.T) {
	t.Setenv("CLIMALIGHT_SENSOR_BACKEND", "onewire")
	c := CreateSensorCmd()
	c.SetArgs([]string{"--config", ""})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})

	if err := c.Execute(); err == nil {
		t.Error("expected the environment backend to be used")
	}
}
