package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	v := getVersion()
	// Should return something (either ldflags value, build info, or "(devel)")
	if v == "" {
		t.Error("getVersion() returned empty string")
	}
}

func TestGetCommit(t *testing.T) {
	t.Parallel()

	c := getCommit()
	// Should return something (either ldflags value, vcs.revision, or "unknown")
	if c == "" {
		t.Error("getCommit() returned empty string")
	}
	if len(c) > 7 && c != "unknown" {
		t.Errorf("getCommit() = %q, want at most 7 characters", c)
	}
}

func TestGetDate(t *testing.T) {
	t.Parallel()

	d := getDate()
	// Should return something (either ldflags value, vcs.time, or "unknown")
	if d == "" {
		t.Error("getDate() returned empty string")
	}
}

func TestVCSSetting(t *testing.T) {
	t.Parallel()

	// An ldflags value always wins over build info.
	if got := vcsSetting("abc1234", "vcs.revision"); got != "abc1234" {
		t.Errorf("vcsSetting with ldflag = %q, want %q", got, "abc1234")
	}

	// An unset key falls back to "unknown".
	if got := vcsSetting("", "no.such.setting"); got != "unknown" {
		t.Errorf("vcsSetting for missing key = %q, want %q", got, "unknown")
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command outputs version info on one line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "crawl version") {
			t.Errorf("expected output to contain 'crawl version', got %q", output)
		}
		if !strings.Contains(output, "commit:") {
			t.Errorf("expected output to contain 'commit:', got %q", output)
		}
		if !strings.Contains(output, "built:") {
			t.Errorf("expected output to contain 'built:', got %q", output)
		}
		if got := strings.Count(strings.TrimRight(output, "\n"), "\n"); got != 0 {
			t.Errorf("expected single-line output, got %d extra lines: %q", got, output)
		}
	})
}
