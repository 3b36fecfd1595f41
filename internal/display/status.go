package display

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/sphere"
)

// Status categories.
const (
	StatusFront = "Front camera image"
	StatusRear  = "Rear camera image"
	StatusMesh  = "Mesh"
)

// slotStatus returns the status category of a camera slot.
func slotStatus(s sphere.Slot) string {
	if s == sphere.Rear {
		return StatusRear
	}
	return StatusFront
}

// Level is the severity of a status entry.
type Level int

const (
	LevelOK Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// Status is one user-visible status line.
type Status struct {
	Level Level
	Text  string
}

// StatusBoard holds the user-visible status of each category. It is safe
// for concurrent use.
type StatusBoard struct {
	mu      sync.Mutex
	entries map[string]Status
	log     *zap.Logger
}

// NewStatusBoard creates an empty board that logs every change.
func NewStatusBoard(log *zap.Logger) *StatusBoard {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusBoard{entries: make(map[string]Status), log: log}
}

// Set updates a category. Unchanged entries are not logged again.
func (b *StatusBoard) Set(name string, level Level, text string) {
	b.mu.Lock()
	prev, ok := b.entries[name]
	next := Status{Level: level, Text: text}
	b.entries[name] = next
	b.mu.Unlock()

	if ok && prev == next {
		return
	}
	fields := []zap.Field{zap.String("category", name), zap.String("status", text)}
	switch level {
	case LevelOK:
		b.log.Info("status", fields...)
	case LevelWarn:
		b.log.Warn("status", fields...)
	default:
		b.log.Error("status", fields...)
	}
}

// Clear removes a category.
func (b *StatusBoard) Clear(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, name)
}

// Get returns the status of a category.
func (b *StatusBoard) Get(name string) (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.entries[name]
	return s, ok
}

// Names returns the categories currently set, sorted.
func (b *StatusBoard) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
