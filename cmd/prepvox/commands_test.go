package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestColorize_Disabled(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "done"); got != "done" {
		t.Errorf("colorize with --no-color = %q, want plain text", got)
	}

	noColor = false
	got := colorize(colorGreen, "done")
	if !strings.Contains(got, "done") || !strings.HasSuffix(got, colorReset) {
		t.Errorf("colorize = %q, want wrapped in ANSI codes", got)
	}
}

func TestLoadInputs_Files(t *testing.T) {
	dir := t.TempDir()
	jdPath := filepath.Join(dir, "jd.txt")
	resumePath := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(jdPath, []byte("the job"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(resumePath, []byte("the resume"), 0o644); err != nil {
		t.Fatal(err)
	}

	jd, resume, err := loadInputs(context.Background(), jdPath, "", resumePath)
	if err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if jd != "the job" || resume != "the resume" {
		t.Errorf("loadInputs = %q, %q", jd, resume)
	}
}

func TestLoadInputs_MissingResume(t *testing.T) {
	dir := t.TempDir()
	jdPath := filepath.Join(dir, "jd.txt")
	if err := os.WriteFile(jdPath, []byte("the job"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := loadInputs(context.Background(), jdPath, "", filepath.Join(dir, "missing.txt"))
	if err == nil {
		t.Error("loadInputs should fail when the resume cannot be read")
	}
}

func TestRootCommand_Wiring(t *testing.T) {
	for _, name := range []string{"generate", "interview", "sessions", "serve", "mcp", "config"} {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestErrQuitSentinel(t *testing.T) {
	wrapped := errors.New("outer")
	if errors.Is(wrapped, errQuit) {
		t.Error("unrelated error must not match errQuit")
	}
	if !errors.Is(errQuit, errQuit) {
		t.Error("errQuit should match itself")
	}
}
