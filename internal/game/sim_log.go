package game

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// SimLogEntry is one recorded simulation event.
type SimLogEntry struct {
	Tick     int
	Actor    string  // label e.g. "U3", "C7", "O2", or "--" for global events
	Faction  string  // "blue", "red", "none", or "--"
	Category string  // capture, cannon, combat, move, status, ai
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=0042] C7   cannon    ff_abort         1 ally in corridor
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%04d] %-4s %-9s %-16s %s",
		e.Tick, e.Actor, e.Category, e.Key, e.Value)
}

// SimLog collects structured events. It is unbounded and machine-readable;
// every entry is also mirrored to the zerolog logger.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
	log     zerolog.Logger
}

// NewSimLog creates a SimLog. If verbose is true, per-tick detail entries are
// also recorded.
func NewSimLog(verbose bool, log zerolog.Logger) *SimLog {
	return &SimLog{verbose: verbose, log: log}
}

// infoKeys are transitions worth surfacing above debug level.
var infoKeys = map[string]bool{
	"captured":    true,
	"neutralized": true,
	"destroyed":   true,
	"ff_abort":    true,
	"abandoned":   true,
	"panic_start": true,
	"jobs":        true,
}

// Add appends an entry and mirrors it to the logger, at info for the keys
// in infoKeys and at debug otherwise.
func (sl *SimLog) Add(tick int, actor, faction, category, key, value string, numVal float64) {
	e := SimLogEntry{Tick: tick, Actor: actor, Faction: faction, Category: category, Key: key, Value: value, NumVal: numVal}
	sl.entries = append(sl.entries, e)
	ev := sl.log.Debug()
	if infoKeys[key] {
		ev = sl.log.Info()
	}
	ev.Int("tick", e.Tick).
		Str("actor", e.Actor).
		Str("faction", e.Faction).
		Str("category", e.Category).
		Str("key", e.Key).
		Float64("num", e.NumVal).
		Msg(e.Value)
}

// AddVerbose is Add for per-tick detail, dropped unless the log is verbose.
func (sl *SimLog) AddVerbose(tick int, actor, faction, category, key, value string, numVal float64) {
	if sl.verbose {
		sl.Add(tick, actor, faction, category, key, value, numVal)
	}
}

// Entries returns all recorded entries in tick order.
func (sl *SimLog) Entries() []SimLogEntry { return sl.entries }

// matches reports whether e has the category and key. Empty arguments are
// wildcards.
func (e SimLogEntry) matches(category, key string) bool {
	return (category == "" || e.Category == category) && (key == "" || e.Key == key)
}

// Filter returns entries with the given category and key. Empty arguments
// match anything.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.matches(category, key) {
			out = append(out, e)
		}
	}
	return out
}

// FilterActor returns every entry logged by one actor label.
func (sl *SimLog) FilterActor(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Actor == label {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory counts entries with the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	n := 0
	for _, e := range sl.entries {
		if e.matches(category, key) {
			n++
		}
	}
	return n
}

// LastOf returns the newest entry with the given category and key.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	for i := len(sl.entries) - 1; i >= 0; i-- {
		if sl.entries[i].matches(category, key) {
			return sl.entries[i], true
		}
	}
	return SimLogEntry{}, false
}

// HasEntry reports whether some entry has the category and key and a value
// containing substr.
func (sl *SimLog) HasEntry(category, key, substr string) bool {
	for _, e := range sl.entries {
		if e.matches(category, key) && strings.Contains(e.Value, substr) {
			return true
		}
	}
	return false
}

// Format renders the whole log, one line per entry.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		fmt.Fprintln(&sb, e)
	}
	return sb.String()
}
