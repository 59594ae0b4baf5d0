package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Options selects which slice of the daemon log to read.
type Options struct {
	// Cursor is the byte position to resume reading from. A negative
	// cursor requests the last Limit matching lines instead.
	Cursor int64
	// Limit caps how many trailing lines a negative-cursor read returns.
	Limit int
	// Component keeps only lines whose component attribute matches.
	Component string
	// MinLevel drops lines below the named slog level.
	MinLevel string
	// Follow polls for new matching lines for up to Wait when the read
	// comes up empty.
	Follow bool
	Wait   time.Duration
}

// Page is one read of the log file. Cursor is where the next read should
// resume.
type Page struct {
	Lines  []string
	Cursor int64
}

// Read returns daemon log lines per opts. A missing file yields an empty
// page, not an error, so the CLI works before the daemon ever started.
func Read(ctx context.Context, path string, opts Options) (Page, error) {
	filter, err := newLineFilter(opts.Component, opts.MinLevel)
	if err != nil {
		return Page{}, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Page{}, nil
	}
	if err != nil {
		return Page{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Page{}, fmt.Errorf("log path %q is a directory", path)
	}

	var page Page
	if opts.Cursor < 0 {
		if opts.Limit <= 0 {
			page = Page{Cursor: info.Size()}
		} else {
			page, err = scanFrom(path, 0, opts.Limit, filter)
		}
	} else {
		cursor := opts.Cursor
		if cursor > info.Size() {
			cursor = info.Size()
		}
		page, err = scanFrom(path, cursor, 0, filter)
	}
	if err != nil {
		return page, err
	}

	if opts.Follow && len(page.Lines) == 0 {
		return poll(ctx, path, page.Cursor, opts.Wait, filter)
	}
	return page, nil
}

// scanFrom reads matching lines starting at cursor. When keep is positive
// the line buffer is trimmed while scanning so only the trailing keep lines
// survive a pass over an arbitrarily large file.
func scanFrom(path string, cursor int64, keep int, filter lineFilter) (Page, error) {
	page := Page{Cursor: cursor}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Page{}, nil
	}
	if err != nil {
		return page, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(cursor, io.SeekStart); err != nil {
		return page, fmt.Errorf("seek log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !filter.match(line) {
			continue
		}
		page.Lines = append(page.Lines, line)
		if keep > 0 && len(page.Lines) > 2*keep {
			page.Lines = append(page.Lines[:0], page.Lines[len(page.Lines)-keep:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return page, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return page, fmt.Errorf("resolve log cursor: %w", err)
	}
	page.Cursor = end

	if keep > 0 && len(page.Lines) > keep {
		page.Lines = page.Lines[len(page.Lines)-keep:]
	}
	return page, nil
}

// poll re-scans until a matching line appears, wait elapses, or the context
// ends. A vanished file resets the cursor so rotation restarts the stream.
func poll(ctx context.Context, path string, cursor int64, wait time.Duration, filter lineFilter) (Page, error) {
	if wait < 0 {
		wait = 0
	}
	deadline := time.Now().Add(wait)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	page := Page{Cursor: cursor}
	for {
		next, err := scanFrom(path, page.Cursor, 0, filter)
		if err != nil {
			return page, err
		}
		page.Cursor = next.Cursor
		if len(next.Lines) > 0 {
			page.Lines = next.Lines
			return page, nil
		}
		if !time.Now().Before(deadline) {
			return page, nil
		}
		select {
		case <-ctx.Done():
			return page, ctx.Err()
		case <-ticker.C:
		}
	}
}
