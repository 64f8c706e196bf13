// Package context implements the prefix-to-namespace registry every SPARQL
// interaction runs through. A Context renders the PREFIX prologue for
// SPARQL and the @prefix header for Turtle, and translates between QNames
// and full IRIs in both directions.
//
// Contexts are named: sessions sharing a context name share one registry,
// which is how project namespaces discovered at login become visible to the
// whole session. The registry is process-wide and mutex-guarded.
package context

import (
	"sort"
	"strings"
	"sync"

	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// DefaultContextName is the context used when a session does not name one.
const DefaultContextName = "DEFAULT"

// The namespaces every context starts with.
var defaultPrefixes = map[xsd.NCName]dtypes.NamespaceIRI{
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
	"owl":     "http://www.w3.org/2002/07/owl#",
	"xsd":     "http://www.w3.org/2001/XMLSchema#",
	"xml":     "http://www.w3.org/XML/1998/namespace#",
	"sh":      "http://www.w3.org/ns/shacl#",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"schema":  "https://schema.org/",
	"oldap":   "http://oldap.org/base#",
	"shared":  "http://oldap.org/shared#",
}

// Context is a named prefix registry.
type Context struct {
	mu       sync.RWMutex
	name     string
	prefixes map[xsd.NCName]dtypes.NamespaceIRI
	inUse    map[xsd.NCName]bool
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Context{}
)

// Get returns the context registered under the given name, creating it with
// the default prefix set on first use.
func Get(name string) *Context {
	if name == "" {
		name = DefaultContextName
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if ctx, ok := registry[name]; ok {
		return ctx
	}
	ctx := &Context{
		name:     name,
		prefixes: make(map[xsd.NCName]dtypes.NamespaceIRI, len(defaultPrefixes)),
		inUse:    map[xsd.NCName]bool{},
	}
	for p, ns := range defaultPrefixes {
		ctx.prefixes[p] = ns
	}
	registry[name] = ctx
	return ctx
}

// Reset discards a named context; the next Get recreates it fresh. Intended
// for tests.
func Reset(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Name returns the context name.
func (c *Context) Name() string {
	return c.name
}

// Set registers (or replaces) a prefix.
func (c *Context) Set(prefix xsd.NCName, ns dtypes.NamespaceIRI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixes[prefix] = ns
}

// Namespace returns the namespace for a prefix.
func (c *Context) Namespace(prefix xsd.NCName) (dtypes.NamespaceIRI, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.prefixes[prefix]
	return ns, ok
}

// Delete removes a prefix. The built-in prefixes cannot be removed.
func (c *Context) Delete(prefix xsd.NCName) error {
	if _, builtin := defaultPrefixes[prefix]; builtin {
		return oldaperror.New(oldaperror.Immutable, "prefix %q is built in", prefix)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.prefixes[prefix]; !ok {
		return oldaperror.New(oldaperror.Key, "unknown prefix %q", prefix)
	}
	delete(c.prefixes, prefix)
	return nil
}

// Use marks project graphs whose prefixes queries of this session address.
func (c *Context) Use(prefixes ...xsd.NCName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range prefixes {
		c.inUse[p] = true
	}
}

// InUse returns the marked project prefixes in sorted order.
func (c *Context) InUse() []xsd.NCName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]xsd.NCName, 0, len(c.inUse))
	for p := range c.inUse {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Context) sortedPrefixes() []xsd.NCName {
	out := make([]xsd.NCName, 0, len(c.prefixes))
	for p := range c.prefixes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SPARQLPrologue renders the PREFIX lines for every registered prefix, in
// canonical (sorted) order.
func (c *Context) SPARQLPrologue() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sb strings.Builder
	for _, p := range c.sortedPrefixes() {
		sb.WriteString("PREFIX ")
		sb.WriteString(string(p))
		sb.WriteString(": <")
		sb.WriteString(string(c.prefixes[p]))
		sb.WriteString(">\n")
	}
	return sb.String()
}

// TurtlePrologue renders the @prefix header for Turtle/TriG documents.
func (c *Context) TurtlePrologue() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sb strings.Builder
	for _, p := range c.sortedPrefixes() {
		sb.WriteString("@prefix ")
		sb.WriteString(string(p))
		sb.WriteString(": <")
		sb.WriteString(string(c.prefixes[p]))
		sb.WriteString("> .\n")
	}
	return sb.String()
}

// IRIToQName abbreviates a full IRI to a QName when a registered namespace
// prefixes it; the second result is false otherwise.
func (c *Context) IRIToQName(iri string) (xsd.QName, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.sortedPrefixes() {
		if local, ok := c.prefixes[p].Matches(iri); ok {
			if !strings.ContainsAny(local, "/#") {
				return xsd.MakeQName(p, local), true
			}
		}
	}
	return "", false
}

// QNameToIRI expands a QName to its full IRI.
func (c *Context) QNameToIRI(q xsd.QName) (xsd.IRI, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.prefixes[xsd.NCName(q.Prefix())]
	if !ok {
		return "", oldaperror.New(oldaperror.Key, "unknown prefix in QName %q", q)
	}
	return ns.Append(q.Fragment()), nil
}
