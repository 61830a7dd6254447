package ingredient

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed default_registry.json
var defaultRegistryJSON []byte

// Spec is the declarative form of one registry entry, as stored in JSON.
type Spec struct {
	// Name is the human-readable ingredient label, e.g. "Sesame Seeds".
	Name string `json:"name"`

	// Aliases are alternative spellings that resolve to this ingredient.
	Aliases []string `json:"aliases,omitempty"`

	// Color is the optional HSV signature used by the heuristic detector.
	Color *ColorSignature `json:"color,omitempty"`
}

// Entry is a registered ingredient.
type Entry struct {
	Name    Name            `json:"name"`
	Display string          `json:"display"`
	Aliases []string        `json:"aliases,omitempty"`
	Color   *ColorSignature `json:"color,omitempty"`
}

// Terms returns the canonicalized display name followed by the canonicalized
// aliases, without duplicates. These are the strings fuzzy matchers compare
// receipt text against.
func (e Entry) Terms() []string {
	seen := map[string]struct{}{string(e.Name): {}}
	terms := []string{string(e.Name)}
	for _, a := range e.Aliases {
		key := Canonicalize(a)
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, key)
	}
	return terms
}

// Registry is the immutable set of known ingredients.
//
// Entries keep their insertion order; Order exposes it for deterministic
// tie-breaking.
type Registry struct {
	entries []Entry
	order   map[Name]int
	lookup  map[string]Name
}

// NewRegistry builds a registry from specs. It fails on empty names and on
// names or aliases that resolve to more than one ingredient.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(specs)),
		order:   make(map[Name]int, len(specs)),
		lookup:  make(map[string]Name),
	}
	for i, s := range specs {
		key := Canonicalize(s.Name)
		if key == "" {
			return nil, fmt.Errorf("ingredient %d: empty name", i)
		}
		name := Name(key)
		if _, dup := r.order[name]; dup {
			return nil, fmt.Errorf("ingredient %q: duplicate canonical name %q", s.Name, name)
		}
		if s.Color != nil {
			if err := s.Color.validate(); err != nil {
				return nil, fmt.Errorf("ingredient %q: %w", s.Name, err)
			}
		}
		if err := r.bind(key, name); err != nil {
			return nil, err
		}
		aliases := make([]string, 0, len(s.Aliases))
		for _, a := range s.Aliases {
			akey := Canonicalize(a)
			if akey == "" {
				continue
			}
			if err := r.bind(akey, name); err != nil {
				return nil, err
			}
			aliases = append(aliases, strings.TrimSpace(a))
		}
		var color *ColorSignature
		if s.Color != nil {
			c := *s.Color
			color = &c
		}
		r.order[name] = len(r.entries)
		r.entries = append(r.entries, Entry{
			Name:    name,
			Display: strings.TrimSpace(s.Name),
			Aliases: aliases,
			Color:   color,
		})
	}
	return r, nil
}

func (r *Registry) bind(key string, name Name) error {
	if prev, ok := r.lookup[key]; ok && prev != name {
		return fmt.Errorf("term %q resolves to both %q and %q", key, prev, name)
	}
	r.lookup[key] = name
	return nil
}

type registryDocument struct {
	Ingredients []Spec `json:"ingredients"`
}

// Parse decodes a JSON registry document of the form
// {"ingredients": [{"name": ..., "aliases": [...], "color": {...}}]}.
func Parse(rd io.Reader) (*Registry, error) {
	var doc registryDocument
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if len(doc.Ingredients) == 0 {
		return nil, errors.New("registry has no ingredients")
	}
	return NewRegistry(doc.Ingredients)
}

// Load reads a registry document from path.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Default returns the built-in registry embedded in the binary.
func Default() *Registry {
	r, err := Parse(strings.NewReader(string(defaultRegistryJSON)))
	if err != nil {
		panic(fmt.Sprintf("ingredient: embedded registry is invalid: %v", err))
	}
	return r
}

// Resolve maps a free-form ingredient string to its canonical name through
// exact name or alias lookup.
func (r *Registry) Resolve(s string) (Name, bool) {
	n, ok := r.lookup[Canonicalize(s)]
	return n, ok
}

// Entry returns the entry for a canonical name.
func (r *Registry) Entry(n Name) (Entry, bool) {
	i, ok := r.order[n]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of all entries in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Order returns the insertion index of n, or -1 if n is not registered.
func (r *Registry) Order(n Name) int {
	if i, ok := r.order[n]; ok {
		return i
	}
	return -1
}

// Display returns the human-readable label for n, falling back to n itself.
func (r *Registry) Display(n Name) string {
	if e, ok := r.Entry(n); ok {
		return e.Display
	}
	return string(n)
}

// Vocabulary returns the display names of all entries in insertion order.
func (r *Registry) Vocabulary() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Display
	}
	return out
}

// Len returns the number of registered ingredients.
func (r *Registry) Len() int { return len(r.entries) }
