// Package loader loads hierarchical controlled vocabularies (skos concept
// schemes) from YAML definitions into a project's :lists graph. Nodes are
// stored in nested-set form: every node carries a left and a right index,
// so subtree queries need no recursion.
package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// ListNode is one concept of a hierarchical list.
type ListNode struct {
	ID         xsd.NCName
	PrefLabel  *dtypes.LangString
	Definition *dtypes.LangString
	Nodes      []*ListNode

	LeftIndex  int
	RightIndex int
}

// List is a hierarchical controlled vocabulary bound to a project.
type List struct {
	ID         xsd.NCName
	PrefLabel  *dtypes.LangString
	Definition *dtypes.LangString
	Nodes      []*ListNode
}

// yamlNode mirrors the YAML shape of a list or node entry: labels and
// definitions are lists of "text@lang" strings, children live under
// "nodes" keyed by their id.
type yamlNode struct {
	Label      []string            `yaml:"label"`
	Definition []string            `yaml:"definition"`
	Nodes      map[string]yamlNode `yaml:"nodes"`
}

// LoadListFile parses a YAML list definition. The top level maps list ids
// to their definitions; files carrying several lists yield several results.
func LoadListFile(path string) ([]*List, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "cannot read %q", path)
	}
	return ParseLists(payload)
}

// ParseLists parses YAML list definitions from memory.
func ParseLists(payload []byte) ([]*List, error) {
	var doc map[string]yamlNode
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, oldaperror.Wrap(oldaperror.Value, err, "malformed list definition")
	}
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var lists []*List
	for _, id := range ids {
		entry := doc[id]
		listID, err := xsd.NewNCName(id)
		if err != nil {
			return nil, err
		}
		list := &List{ID: listID}
		if list.PrefLabel, err = langStringOf(entry.Label); err != nil {
			return nil, err
		}
		if list.Definition, err = langStringOf(entry.Definition); err != nil {
			return nil, err
		}
		if list.Nodes, err = buildNodes(entry.Nodes); err != nil {
			return nil, err
		}
		index := 1
		for _, node := range list.Nodes {
			index = assignIndexes(node, index)
		}
		lists = append(lists, list)
	}
	return lists, nil
}

func langStringOf(entries []string) (*dtypes.LangString, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	values := make([]xsd.String, 0, len(entries))
	for _, e := range entries {
		s, err := xsd.NewString(e)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return dtypes.NewLangString(values...)
}

func buildNodes(entries map[string]yamlNode) ([]*ListNode, error) {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var nodes []*ListNode
	for _, id := range ids {
		entry := entries[id]
		nodeID, err := xsd.NewNCName(id)
		if err != nil {
			return nil, err
		}
		node := &ListNode{ID: nodeID}
		if node.PrefLabel, err = langStringOf(entry.Label); err != nil {
			return nil, err
		}
		if node.Definition, err = langStringOf(entry.Definition); err != nil {
			return nil, err
		}
		if node.Nodes, err = buildNodes(entry.Nodes); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// assignIndexes walks the tree in preorder assigning nested-set indexes;
// it returns the next free index.
func assignIndexes(node *ListNode, next int) int {
	node.LeftIndex = next
	next++
	for _, child := range node.Nodes {
		next = assignIndexes(child, next)
	}
	node.RightIndex = next
	return next + 1
}

// IRI returns the list's IRI within the project namespace.
func (l *List) IRI(project xsd.NCName) xsd.QName {
	return xsd.MakeQName(project, string(l.ID))
}

// InsertData renders the list as one INSERT DATA into the project's
// :lists graph.
func (l *List) InsertData(con connection.IConnection, project xsd.NCName) string {
	ctx := con.Context()
	timestamp := xsd.DateTimeNow()
	listIRI := l.IRI(project)

	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&sb, "    GRAPH %s:lists {\n", project)
	fmt.Fprintf(&sb, "        %s a skos:ConceptScheme", listIRI.ToRDF())
	writeAudit(&sb, con, timestamp)
	if l.PrefLabel != nil && l.PrefLabel.Len() > 0 {
		fmt.Fprintf(&sb, " ;\n            skos:prefLabel %s", l.PrefLabel.ToRDF())
	}
	if l.Definition != nil && l.Definition.Len() > 0 {
		fmt.Fprintf(&sb, " ;\n            skos:definition %s", l.Definition.ToRDF())
	}
	sb.WriteString(" .\n")
	for _, node := range l.Nodes {
		writeNode(&sb, con, project, listIRI, node, "", timestamp)
	}
	sb.WriteString("    }\n}\n")
	return sb.String()
}

func writeAudit(sb *strings.Builder, con connection.IConnection, timestamp xsd.DateTime) {
	fmt.Fprintf(sb, " ;\n            dcterms:creator %s", con.UserIRI().ToRDF())
	fmt.Fprintf(sb, " ;\n            dcterms:created %s", timestamp.ToRDF())
	fmt.Fprintf(sb, " ;\n            dcterms:contributor %s", con.UserIRI().ToRDF())
	fmt.Fprintf(sb, " ;\n            dcterms:modified %s", timestamp.ToRDF())
}

func writeNode(sb *strings.Builder, con connection.IConnection, project xsd.NCName, listIRI xsd.QName, node *ListNode, parent xsd.QName, timestamp xsd.DateTime) {
	nodeIRI := xsd.MakeQName(project, string(node.ID))
	fmt.Fprintf(sb, "        %s a skos:Concept ;\n", nodeIRI.ToRDF())
	fmt.Fprintf(sb, "            skos:inScheme %s", listIRI.ToRDF())
	writeAudit(sb, con, timestamp)
	fmt.Fprintf(sb, " ;\n            oldap:leftIndex %d", node.LeftIndex)
	fmt.Fprintf(sb, " ;\n            oldap:rightIndex %d", node.RightIndex)
	if parent != "" {
		fmt.Fprintf(sb, " ;\n            skos:broaderTransitive %s", parent.ToRDF())
	}
	if node.PrefLabel != nil && node.PrefLabel.Len() > 0 {
		fmt.Fprintf(sb, " ;\n            skos:prefLabel %s", node.PrefLabel.ToRDF())
	}
	if node.Definition != nil && node.Definition.Len() > 0 {
		fmt.Fprintf(sb, " ;\n            skos:definition %s", node.Definition.ToRDF())
	}
	sb.WriteString(" .\n")
	for _, child := range node.Nodes {
		writeNode(sb, con, project, listIRI, child, nodeIRI, timestamp)
	}
}

// Store writes the list into the project's :lists graph.
func (l *List) Store(con connection.IConnection, project xsd.NCName) error {
	return con.Update(l.InsertData(con, project))
}
