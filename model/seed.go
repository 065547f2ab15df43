package model

import (
	"fmt"
	"sort"
	"strings"
)

// SeedEntry is one normalized attribute passed in by the caller.
type SeedEntry struct {
	Name  string
	Value string
	Unset bool
	// Soft entries ("name=value@") may be overridden by the document.
	Soft bool
}

// ParseAttributeSeed normalizes the attribute seed forms accepted by the
// loader: a whitespace separated string ("a=b c! d=e@"), a list of
// "name=value" strings, a map[string]string or a map[string]any. Entries
// from maps are returned sorted by name.
func ParseAttributeSeed(seed interface{}) ([]SeedEntry, error) {
	switch v := seed.(type) {
	case nil:
		return nil, nil
	case string:
		return parseSeedList(splitSeedString(v)), nil
	case []string:
		return parseSeedList(v), nil
	case map[string]string:
		out := make([]SeedEntry, 0, len(v))
		for _, name := range sortedKeys(v) {
			out = append(out, seedEntry(name, v[name], true))
		}
		return out, nil
	case map[string]interface{}:
		out := make([]SeedEntry, 0, len(v))
		names := make([]string, 0, len(v))
		for k := range v {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, name := range names {
			switch val := v[name].(type) {
			case nil:
				out = append(out, SeedEntry{Name: strings.TrimSuffix(name, "!"), Unset: true})
			case bool:
				if val {
					out = append(out, seedEntry(name, "", true))
				} else {
					out = append(out, SeedEntry{Name: strings.TrimSuffix(name, "!"), Unset: true})
				}
			default:
				out = append(out, seedEntry(name, fmt.Sprint(val), true))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute seed type %T", seed)
	}
}

// splitSeedString splits on unescaped whitespace; "\ " keeps a literal space.
func splitSeedString(s string) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == ' ':
			cur.WriteByte(' ')
			i++
		case c == ' ' || c == '\t' || c == '\n':
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func parseSeedList(items []string) []SeedEntry {
	out := make([]SeedEntry, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value, hasValue := strings.Cut(item, "=")
		out = append(out, seedEntry(name, value, hasValue))
	}
	return out
}

func seedEntry(name, value string, hasValue bool) SeedEntry {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "!") || strings.HasPrefix(name, "!") {
		return SeedEntry{Name: strings.Trim(name, "!"), Unset: true}
	}
	e := SeedEntry{Name: name}
	if strings.HasSuffix(name, "@") {
		e.Name = strings.TrimSuffix(name, "@")
		e.Soft = true
	}
	if hasValue {
		if strings.HasSuffix(value, "@") {
			value = strings.TrimSuffix(value, "@")
			e.Soft = true
		}
		e.Value = value
	}
	return e
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Seed applies caller entries to the store. Hard entries are locked, soft
// entries use ProvenanceAPI.
func (s *AttributeStore) Seed(entries []SeedEntry) {
	for _, e := range entries {
		prov := ProvenanceLocked
		if e.Soft {
			prov = ProvenanceAPI
		}
		if e.Unset {
			s.Unset(e.Name, prov)
			continue
		}
		s.Set(e.Name, e.Value, prov)
	}
}
