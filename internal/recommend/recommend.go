package recommend

import "strings"

const DefaultFallback = "Dispose Responsibly ♻️"

// DefaultEntries is the built-in waste type to R-method table. A fresh map is
// returned on every call.
func DefaultEntries() map[string]string {
	return map[string]string{
		"plastic":   "Recycle ♻️",
		"paper":     "Reuse 📄",
		"glass":     "Recycle 🧪",
		"metal":     "Recycle 🛠️",
		"organic":   "Reduce 🌿",
		"e-waste":   "Recycle ⚡",
		"textile":   "Reuse 👕",
		"cardboard": "Reuse 📦",
		"hazardous": "Reduce 🚫",
		"other":     "Reduce/Reuse ♻️",
	}
}

// Map is an immutable label to action table. Keys are stored normalized.
type Map struct {
	actions  map[string]string
	fallback string
}

// NewMap copies entries; later changes to entries do not affect the Map.
// An empty fallback selects DefaultFallback.
func NewMap(entries map[string]string, fallback string) *Map {
	actions := make(map[string]string, len(entries))
	for label, action := range entries {
		actions[Normalize(label)] = strings.TrimSpace(action)
	}
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Map{
		actions:  actions,
		fallback: fallback,
	}
}

func DefaultMap() *Map {
	return NewMap(DefaultEntries(), DefaultFallback)
}

func (m *Map) Lookup(label string) (string, bool) {
	action, ok := m.actions[Normalize(label)]
	return action, ok
}

func (m *Map) Fallback() string {
	return m.fallback
}

func (m *Map) Len() int {
	return len(m.actions)
}

// Normalize lower-cases and trims a label for lookup.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

type Resolver struct {
	m *Map
}

func NewResolver(m *Map) *Resolver {
	return &Resolver{m: m}
}

// Recommend never fails: unknown labels resolve to the fallback action.
func (r *Resolver) Recommend(label string) string {
	if r == nil || r.m == nil {
		return DefaultFallback
	}
	if action, ok := r.m.Lookup(label); ok {
		return action
	}
	return r.m.fallback
}

var methods = []string{"Reduce/Reuse", "Recycle", "Reuse", "Reduce"}

// Method extracts the R-method word from an action such as "Recycle ♻️".
// Actions that name none of them yield an empty string.
func Method(action string) string {
	action = strings.TrimSpace(action)
	for _, m := range methods {
		if strings.HasPrefix(strings.ToLower(action), strings.ToLower(m)) {
			return m
		}
	}
	return ""
}
