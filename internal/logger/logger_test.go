package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	if realGot != filepath.Join(realTmpDir, defaultLogDirName) {
		t.Fatalf("unexpected log dir: %s", realGot)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
}

func TestComponentFilename(t *testing.T) {
	cases := []struct {
		filename  string
		component string
		want      string
	}{
		{"", "", "pharmadesk.log"},
		{"pharmadesk.log", ComponentServer, "pharmadesk.log"},
		{"pharmadesk.log", ComponentPOS, "pharmadesk-pos.log"},
		{"desk", ComponentSeed, "desk-seed"},
	}
	for _, tc := range cases {
		if got := componentFilename(tc.filename, tc.component); got != tc.want {
			t.Fatalf("componentFilename(%q,%q) want %s got %s", tc.filename, tc.component, tc.want, got)
		}
	}
}

func TestNewReleaseWritesComponentField(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log", Component: ComponentServer})
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") || !strings.Contains(string(content), `"component":"server"`) {
		t.Fatalf("unexpected log content: %s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestNewQuietPOSWritesOwnFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "pharmadesk.log", Component: ComponentPOS, Quiet: true})
	log.Debug("quiet-debug-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "pharmadesk-pos.log"))
	if err != nil {
		t.Fatalf("read pos log failed: %v", err)
	}
	if !strings.Contains(string(content), "quiet-debug-log-test") {
		t.Fatalf("expected quiet debug log to contain message, got=%s", string(content))
	}
}

func TestLevelOverride(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "warn.log", Level: "warn"})
	log.Info("dropped-info")
	log.Warn("kept-warn")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "warn.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if strings.Contains(string(content), "dropped-info") || !strings.Contains(string(content), "kept-warn") {
		t.Fatalf("level override not applied: %s", string(content))
	}
}
