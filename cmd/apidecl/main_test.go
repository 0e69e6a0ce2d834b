package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	cfg := "output:\n  dir: " + filepath.Join(tmp, "out") + "\n  formats: [typescript, markdown]\nstore:\n  path: " + filepath.Join(tmp, "db", "apidecl.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestGenFromFile(t *testing.T) {
	out, err := runCmd(t, "gen", "--file", filepath.Join("..", "..", "testdata", "login.schema.json"), "--name", "Login", "--discard-top")
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	if !strings.HasPrefix(out, "interface Roles {") || strings.Contains(out, "interface Login") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestGenRequiresOneSource(t *testing.T) {
	if _, err := runCmd(t, "gen"); err == nil {
		t.Fatalf("expected error without a source")
	}
	if _, err := runCmd(t, "gen", "--id", "1", "--file", "x.json"); err == nil {
		t.Fatalf("expected error with two sources")
	}
	if _, err := runCmd(t, "gen", "--file", "x.json", "--kind", "headers"); err == nil {
		t.Fatalf("expected error for bad kind")
	}
	if _, err := runCmd(t, "gen", "--id", "1", "--no-cache"); err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestHARCommand(t *testing.T) {
	out, err := runCmd(t, "har", "--har", filepath.Join("..", "..", "testdata", "sample.har"))
	if err != nil {
		t.Fatalf("har: %v", err)
	}
	if !strings.Contains(out, "generated 3 snippets") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "error", true, false)
	logger.Info("visible")
	logger.Debug("hidden")
	if !strings.Contains(buf.String(), "visible") || strings.Contains(buf.String(), "hidden") {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
	if parseLevel("WARN") != slog.LevelWarn || parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unexpected level parsing")
	}
	buf.Reset()
	newLogger(&buf, "info", false, true).Debug("dbg")
	if !strings.Contains(buf.String(), "dbg") {
		t.Fatalf("debug flag should enable debug logs")
	}
}
