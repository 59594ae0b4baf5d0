package logs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"kinetic/internal/logs"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kinetic.log")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func logLine(level, component, msg string) string {
	return fmt.Sprintf(`{"time":"2026-09-01T10:00:00Z","level":%q,"msg":%q,"component":%q}`, level, msg, component)
}

func TestReadLastLines(t *testing.T) {
	path := writeLog(t,
		logLine("INFO", "daemon", "starting"),
		logLine("INFO", "session", "session created"),
		logLine("INFO", "session", "video minted"),
	)

	page, err := logs.Read(context.Background(), path, logs.Options{Cursor: -1, Limit: 2})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(page.Lines))
	}
	if !strings.Contains(page.Lines[1], "video minted") {
		t.Fatalf("expected newest line last, got %q", page.Lines[1])
	}
	if page.Cursor == 0 {
		t.Fatal("expected a resume cursor")
	}
}

func TestReadResumesFromCursor(t *testing.T) {
	path := writeLog(t, logLine("INFO", "daemon", "starting"))

	first, err := logs.Read(context.Background(), path, logs.Options{Cursor: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	appendLine(t, path, logLine("INFO", "api-server", "api server listening"))

	second, err := logs.Read(context.Background(), path, logs.Options{Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("Read from cursor failed: %v", err)
	}
	if len(second.Lines) != 1 || !strings.Contains(second.Lines[0], "api server listening") {
		t.Fatalf("expected only the appended line, got %#v", second.Lines)
	}
}

func TestReadFiltersComponentAndLevel(t *testing.T) {
	path := writeLog(t,
		logLine("DEBUG", "session", "pruned idle sessions"),
		logLine("INFO", "session", "session created"),
		logLine("WARN", "session", "publish notification failed"),
		logLine("ERROR", "api-server", "request failed"),
		"plain text line",
	)

	page, err := logs.Read(context.Background(), path, logs.Options{
		Cursor: -1, Limit: 10, Component: "session", MinLevel: "warn",
	})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(page.Lines) != 1 || !strings.Contains(page.Lines[0], "publish notification failed") {
		t.Fatalf("expected the one warning line, got %#v", page.Lines)
	}

	page, err = logs.Read(context.Background(), path, logs.Options{Cursor: -1, Limit: 10, MinLevel: "error"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(page.Lines) != 1 || !strings.Contains(page.Lines[0], "request failed") {
		t.Fatalf("expected the one error line, got %#v", page.Lines)
	}
}

func TestReadRejectsUnknownLevel(t *testing.T) {
	path := writeLog(t, logLine("INFO", "daemon", "starting"))
	if _, err := logs.Read(context.Background(), path, logs.Options{Cursor: -1, Limit: 1, MinLevel: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinetic.log")
	page, err := logs.Read(context.Background(), path, logs.Options{Cursor: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(page.Lines) != 0 || page.Cursor != 0 {
		t.Fatalf("expected empty page, got %#v", page)
	}
}

func TestFollowPicksUpNewLines(t *testing.T) {
	path := writeLog(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(300 * time.Millisecond)
		appendLine(t, path, logLine("INFO", "daemon", "daemon started"))
	}()

	page, err := logs.Read(context.Background(), path, logs.Options{
		Cursor: 0, Follow: true, Wait: 3 * time.Second,
	})
	wg.Wait()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(page.Lines) != 1 || !strings.Contains(page.Lines[0], "daemon started") {
		t.Fatalf("expected followed line, got %#v", page.Lines)
	}
}

func TestFollowStopsOnContextCancel(t *testing.T) {
	path := writeLog(t, logLine("INFO", "daemon", "starting"))
	ctx, cancel := context.WithCancel(context.Background())

	first, err := logs.Read(ctx, path, logs.Options{Cursor: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if _, err := logs.Read(ctx, path, logs.Options{Cursor: first.Cursor, Follow: true, Wait: time.Minute}); err == nil {
		t.Fatal("expected context error")
	}
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Errorf("open log for append: %v", err)
		return
	}
	defer file.Close()
	if _, err := file.WriteString(line + "\n"); err != nil {
		t.Errorf("append log line: %v", err)
	}
}
