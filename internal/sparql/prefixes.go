package sparql

import (
	"sort"

	"github.com/roach88/querybinder/internal/rdf"
)

// Prefixes is a two-tier prefix table: an owned local table plus an
// optional shared base. Lookups fall through from local to base.
//
// A table returned by DefaultPrefixSet is shared by every decoded query and
// must never be modified; Set and Delete panic on it.
type Prefixes struct {
	own    map[string]string
	base   *Prefixes
	shared bool
}

var defaultPrefixSet = &Prefixes{own: rdf.DefaultPrefixes(), shared: true}

// DefaultPrefixSet returns the shared, read-only table of standard prefixes.
func DefaultPrefixSet() *Prefixes {
	return defaultPrefixSet
}

// NewPrefixes creates an empty local table inheriting from base (may be nil).
func NewPrefixes(base *Prefixes) *Prefixes {
	return &Prefixes{own: map[string]string{}, base: base}
}

// Base returns the inherited table, or nil.
func (p *Prefixes) Base() *Prefixes {
	if p == nil {
		return nil
	}
	return p.base
}

// Lookup resolves prefix in the local table, then in the base chain.
func (p *Prefixes) Lookup(prefix string) (string, bool) {
	for t := p; t != nil; t = t.base {
		if iri, ok := t.own[prefix]; ok {
			return iri, true
		}
	}
	return "", false
}

// HasOwn reports whether prefix is set on this table itself.
func (p *Prefixes) HasOwn(prefix string) bool {
	if p == nil {
		return false
	}
	_, ok := p.own[prefix]
	return ok
}

// HasInherited reports whether prefix resolves only through the base.
func (p *Prefixes) HasInherited(prefix string) bool {
	if p == nil || p.HasOwn(prefix) {
		return false
	}
	_, ok := p.base.Lookup(prefix)
	return ok
}

// Set binds prefix on the local table.
func (p *Prefixes) Set(prefix, iri string) {
	p.mustBeWritable()
	if p.own == nil {
		p.own = map[string]string{}
	}
	p.own[prefix] = iri
}

// Delete removes a local binding. Inherited bindings are unaffected.
func (p *Prefixes) Delete(prefix string) {
	p.mustBeWritable()
	delete(p.own, prefix)
}

// Own returns a copy of the local bindings.
func (p *Prefixes) Own() map[string]string {
	out := map[string]string{}
	if p == nil {
		return out
	}
	for k, v := range p.own {
		out[k] = v
	}
	return out
}

// Keys returns every resolvable prefix (local and inherited), sorted.
func (p *Prefixes) Keys() []string {
	seen := map[string]bool{}
	for t := p; t != nil; t = t.base {
		for k := range t.own {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone copies the local table and keeps the same base reference.
func (p *Prefixes) Clone() *Prefixes {
	if p == nil {
		return nil
	}
	if p.shared {
		return p
	}
	return &Prefixes{own: p.Own(), base: p.base}
}

func (p *Prefixes) mustBeWritable() {
	if p.shared {
		panic("sparql: shared prefix table is read-only")
	}
}
