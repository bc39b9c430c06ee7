package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

func TestLogFilePathDefaultsToWorkdir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := logFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	realTmp, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("eval tmp dir failed: %v", err)
	}
	realDir, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("eval log dir failed: %v", err)
	}
	if realDir != filepath.Join(realTmp, defaultDir) || filepath.Base(got) != defaultFilename {
		t.Fatalf("unexpected default log path %s", got)
	}
}

func TestReleaseModeWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "release.log"})
	log.Sugar().Infow("checkout_draft_created", "order_id", 7)
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, `"event":"checkout_draft_created"`) || !strings.Contains(line, `"order_id":7`) {
		t.Fatalf("unexpected log line %s", line)
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	dir := t.TempDir()
	log := New("debug", Options{Dir: dir, Filename: "debug.log"})
	log.Info("cart_item_added")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestGormLoggerLevels(t *testing.T) {
	quiet := NewGormLogger(false)
	if quiet.level != gormlogger.Warn {
		t.Fatalf("non-debug gorm logger should start at warn, got %v", quiet.level)
	}
	if NewGormLogger(true).level != gormlogger.Info {
		t.Fatalf("debug gorm logger should log every statement")
	}
	silent := quiet.LogMode(gormlogger.Silent).(*GormLogger)
	if silent.level != gormlogger.Silent || quiet.level != gormlogger.Warn {
		t.Fatalf("LogMode should return an independent copy")
	}

	called := false
	fc := func() (string, int64) {
		called = true
		return "SELECT 1", 1
	}
	silent.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	if called {
		t.Fatalf("silent logger should not render sql")
	}
	quiet.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	if called {
		t.Fatalf("record not found on a fast query should not be logged")
	}
	quiet.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	if !called {
		t.Fatalf("slow query should be logged")
	}
}
