package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"minutes/internal/config"
	"minutes/internal/testsupport"
	"minutes/internal/workflow"
)

type clipboardStub struct {
	text string
}

func (c *clipboardStub) WriteAll(text string) error {
	c.text = text
	return nil
}

type cliTestEnv struct {
	cfg        *config.Config
	fake       *testsupport.FakeServer
	clipboard  *clipboardStub
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MINUTES_SERVER_URL", "")

	fake := testsupport.NewFakeServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServerURL(fake.URL))

	configPath := filepath.Join(homeDir, ".config", "minutes", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	clip := &clipboardStub{}
	previous := newClipboard
	newClipboard = func() workflow.Clipboard { return clip }
	t.Cleanup(func() { newClipboard = previous })

	return &cliTestEnv{
		cfg:        cfg,
		fake:       fake,
		clipboard:  clip,
		configPath: configPath,
		baseDir:    base,
	}
}

// recording writes an audio file under the test root and returns its path.
func (e *cliTestEnv) recording(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "recordings", name)
	testsupport.WriteFile(t, path, 2048)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
