package model

import (
	"sort"
	"strconv"
	"strings"
)

// Provenance records who set a document attribute.
type Provenance int

const (
	// ProvenanceDefault marks built-in defaults.
	ProvenanceDefault Provenance = iota
	// ProvenanceHeader marks values set by attribute entries in the document.
	ProvenanceHeader
	// ProvenanceAPI marks soft values passed by the caller; the document may override them.
	ProvenanceAPI
	// ProvenanceLocked marks values passed by the caller that the document cannot touch.
	ProvenanceLocked
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceDefault:
		return "default"
	case ProvenanceHeader:
		return "header"
	case ProvenanceAPI:
		return "api"
	case ProvenanceLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// CanOverride decides whether a write with provenance incoming may replace
// or unset an entry currently held with provenance existing. Only a locked
// write can touch a locked entry.
func CanOverride(existing, incoming Provenance) bool {
	if existing == ProvenanceLocked {
		return incoming == ProvenanceLocked
	}
	return true
}

type attrEntry struct {
	value string
	prov  Provenance
	unset bool // tombstone for a locked "name!" seed
}

// AttributeStore holds document attributes along with their provenance.
// Names are case-insensitive.
type AttributeStore struct {
	entries  map[string]attrEntry
	snapshot map[string]attrEntry
}

// NewAttributeStore returns an empty store.
func NewAttributeStore() *AttributeStore {
	return &AttributeStore{entries: make(map[string]attrEntry)}
}

// Get returns the value of name and whether it is set.
func (s *AttributeStore) Get(name string) (string, bool) {
	e, ok := s.entries[FoldName(name)]
	if !ok || e.unset {
		return "", false
	}
	return e.value, true
}

// Value returns the value of name or "" when unset.
func (s *AttributeStore) Value(name string) string {
	v, _ := s.Get(name)
	return v
}

// ValueOr returns the value of name or def when unset.
func (s *AttributeStore) ValueOr(name, def string) string {
	if v, ok := s.Get(name); ok {
		return v
	}
	return def
}

// Has reports whether name is set.
func (s *AttributeStore) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Int returns the value of name parsed as an integer, or def.
func (s *AttributeStore) Int(name string, def int) int {
	v, ok := s.Get(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Provenance returns who set name. The second result is false when the
// store holds no entry for name.
func (s *AttributeStore) Provenance(name string) (Provenance, bool) {
	e, ok := s.entries[FoldName(name)]
	return e.prov, ok
}

// IsLocked reports whether name was locked by the caller.
func (s *AttributeStore) IsLocked(name string) bool {
	e, ok := s.entries[FoldName(name)]
	return ok && e.prov == ProvenanceLocked
}

// Set assigns value to name. It returns false when the existing entry may
// not be overridden with the given provenance.
func (s *AttributeStore) Set(name, value string, prov Provenance) bool {
	key := FoldName(name)
	if e, ok := s.entries[key]; ok && !CanOverride(e.prov, prov) {
		return false
	}
	s.entries[key] = attrEntry{value: value, prov: prov}
	return true
}

// Unset removes name. A locked unset leaves a tombstone so the document
// cannot set the attribute later. It returns false when not permitted.
func (s *AttributeStore) Unset(name string, prov Provenance) bool {
	key := FoldName(name)
	if e, ok := s.entries[key]; ok && !CanOverride(e.prov, prov) {
		return false
	}
	if prov == ProvenanceLocked {
		s.entries[key] = attrEntry{prov: prov, unset: true}
		return true
	}
	delete(s.entries, key)
	return true
}

// Names returns the set attribute names in sorted order.
func (s *AttributeStore) Names() []string {
	names := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if !e.unset {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Map returns a plain copy of every set attribute.
func (s *AttributeStore) Map() map[string]string {
	m := make(map[string]string, len(s.entries))
	for k, e := range s.entries {
		if !e.unset {
			m[k] = e.value
		}
	}
	return m
}

// Clone returns an independent copy, including provenance.
func (s *AttributeStore) Clone() *AttributeStore {
	c := &AttributeStore{entries: make(map[string]attrEntry, len(s.entries))}
	for k, e := range s.entries {
		c.entries[k] = e
	}
	return c
}

// Save records the current state as the snapshot Restore returns to.
func (s *AttributeStore) Save() {
	s.snapshot = make(map[string]attrEntry, len(s.entries))
	for k, e := range s.entries {
		s.snapshot[k] = e
	}
}

// Restore resets the store to the last snapshot. It is a no-op when Save
// was never called.
func (s *AttributeStore) Restore() {
	if s.snapshot == nil {
		return
	}
	s.entries = make(map[string]attrEntry, len(s.snapshot))
	for k, e := range s.snapshot {
		s.entries[k] = e
	}
}
