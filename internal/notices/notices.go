// Package notices holds the human-readable templates used to build
// timer history entries and other user-facing messages. A Dictionary
// can be overlaid with patches, looked up most-recent-first, so a
// deployment can replace individual strings without forking the
// defaults.
package notices

import (
	"fmt"
	"strings"
)

// Template keys used by the services.
const (
	TimerCreated   = "TIMER_DEFAULT_CREATION_REASON"
	TimerRenamed   = "TIMER_RENAME_NOTICE"
	TimerReset     = "TIMER_RESET_NOTICE"
	TimerResumed   = "TIMER_RESUME_NOTICE"
	TimerStopped   = "TIMER_STOP_NOTICE"
	TimerSuspended = "TIMER_SUSPEND_NOTICE"
	ReasonNone     = "REASON_NONE"
)

// Dictionary is a keyed set of templates with optional overlay patches.
type Dictionary struct {
	description string
	strings     map[string]string
	patches     []*Dictionary
}

// New creates a Dictionary from an initial template map.
func New(description string, templates map[string]string) *Dictionary {
	return &Dictionary{description: description, strings: templates}
}

// Patch overlays another dictionary on top of this one. Later patches
// take precedence. A dictionary never patches itself.
func (d *Dictionary) Patch(p *Dictionary) {
	if p == nil || p == d {
		return
	}
	d.patches = append(d.patches, p)
}

// Get returns the template for key, searching patches from the most
// recently applied down to this dictionary's own strings. Patch chains
// may themselves be patched; already-visited dictionaries are skipped
// so a patch cycle cannot loop forever. Returns "" when the key is
// unknown anywhere in the chain.
func (d *Dictionary) Get(key string) string {
	s, _ := d.lookup(key, map[*Dictionary]bool{})
	return s
}

func (d *Dictionary) lookup(key string, visited map[*Dictionary]bool) (string, bool) {
	if visited[d] {
		return "", false
	}
	visited[d] = true
	for i := len(d.patches) - 1; i >= 0; i-- {
		if s, ok := d.patches[i].lookup(key, visited); ok {
			return s, true
		}
	}
	s, ok := d.strings[key]
	return s, ok
}

// Render looks up key and substitutes positional arguments into {0},
// {1}, ... placeholders.
func (d *Dictionary) Render(key string, args ...string) string {
	out := d.Get(key)
	for i, a := range args {
		out = strings.ReplaceAll(out, fmt.Sprintf("{%d}", i), a)
	}
	return out
}

// Default returns the built-in English templates.
func Default() *Dictionary {
	return New("Default Labels (en)", map[string]string{
		TimerCreated:   "Timer Created.",
		TimerRenamed:   "Timer description changed to: {0}",
		TimerReset:     "Timer reset ({0}).",
		TimerResumed:   "Timer restarted",
		TimerStopped:   "Timer Stopped ({0})",
		TimerSuspended: "Timer suspended ({0})",
		ReasonNone:     "No Reason Given",
	})
}
