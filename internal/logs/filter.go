package logs

import (
	"encoding/json"
	"fmt"
	"strings"
)

var levelRanks = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// lineFilter matches the daemon's slog JSON lines on component and minimum
// level. An inactive filter matches everything, JSON or not.
type lineFilter struct {
	component string
	minLevel  int
}

func newLineFilter(component, minLevel string) (lineFilter, error) {
	filter := lineFilter{component: strings.TrimSpace(component), minLevel: -1}
	name := strings.ToUpper(strings.TrimSpace(minLevel))
	if name == "" {
		return filter, nil
	}
	rank, ok := levelRanks[name]
	if !ok {
		return filter, fmt.Errorf("unknown log level %q", minLevel)
	}
	filter.minLevel = rank
	return filter, nil
}

func (f lineFilter) active() bool {
	return f.component != "" || f.minLevel >= 0
}

// match decodes only the attributes the filter needs. Lines that are not
// JSON objects fail an active filter.
func (f lineFilter) match(line string) bool {
	if !f.active() {
		return true
	}
	var entry struct {
		Level     string `json:"level"`
		Component string `json:"component"`
	}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return false
	}
	if f.component != "" && entry.Component != f.component {
		return false
	}
	if f.minLevel >= 0 {
		rank, ok := levelRanks[strings.ToUpper(entry.Level)]
		if !ok || rank < f.minLevel {
			return false
		}
	}
	return true
}
