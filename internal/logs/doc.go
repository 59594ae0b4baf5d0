// Package logs reads the kinetic daemon's structured log output for the
// CLI. The daemon writes one slog JSON object per line; Read returns a page
// of matching lines plus the byte cursor to resume from, so
// `kinetic logs --follow` polls without re-reading the file. Component and
// level filters decode only the attributes they need from each line.
package logs
