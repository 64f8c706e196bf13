package model

import (
	"fmt"
	"strings"

	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/xsd"
)

// rdfModifyItem is one guarded triple replacement: the predicate, the old
// object (empty on CREATE) and the new object (empty on DELETE).
type rdfModifyItem struct {
	property string
	oldValue string
	newValue string
}

// modifySHACLProp renders a WITH/DELETE/INSERT/WHERE patch on a SHACL
// property node, guarded by the node's dcterms:modified timestamp. For an
// internal property the node is found through the owning shape; standalone
// properties bind their own <iri>Shape node.
func modifySHACLProp(graph string, owlClassIRI string, propIRI string, ele rdfModifyItem, lastModified string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH %s:shacl\n", graph)
	if ele.oldValue != "" {
		fmt.Fprintf(&sb, "DELETE {\n    ?prop %s %s .\n}\n", ele.property, ele.oldValue)
	}
	if ele.newValue != "" {
		fmt.Fprintf(&sb, "INSERT {\n    ?prop %s %s .\n}\n", ele.property, ele.newValue)
	}
	sb.WriteString("WHERE {\n")
	if owlClassIRI != "" {
		fmt.Fprintf(&sb, "    %sShape sh:property ?prop .\n", owlClassIRI)
		fmt.Fprintf(&sb, "    ?prop sh:path %s .\n", propIRI)
	} else {
		fmt.Fprintf(&sb, "    BIND(%sShape as ?prop)\n", propIRI)
	}
	if ele.oldValue != "" {
		fmt.Fprintf(&sb, "    ?prop %s %s .\n", ele.property, ele.oldValue)
	}
	fmt.Fprintf(&sb, "    ?prop dcterms:modified ?modified .\n")
	fmt.Fprintf(&sb, "    FILTER(?modified = %s)\n", lastModified)
	sb.WriteString("}")
	return sb.String()
}

// modifyOWLProp renders the OWL-graph counterpart of modifySHACLProp.
func modifyOWLProp(graph string, propIRI string, ele rdfModifyItem, lastModified string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH %s:onto\n", graph)
	if ele.oldValue != "" {
		fmt.Fprintf(&sb, "DELETE {\n    ?prop %s %s .\n}\n", ele.property, ele.oldValue)
	}
	if ele.newValue != "" {
		fmt.Fprintf(&sb, "INSERT {\n    ?prop %s %s .\n}\n", ele.property, ele.newValue)
	}
	sb.WriteString("WHERE {\n")
	fmt.Fprintf(&sb, "    BIND(%s AS ?prop)\n", propIRI)
	if ele.oldValue != "" {
		fmt.Fprintf(&sb, "    ?prop %s %s .\n", ele.property, ele.oldValue)
	}
	fmt.Fprintf(&sb, "    ?prop dcterms:modified ?modified .\n")
	fmt.Fprintf(&sb, "    FILTER(?modified = %s)\n", lastModified)
	sb.WriteString("}")
	return sb.String()
}

// replaceRDFList renders the atomic replacement of a list-valued facet:
// the old list head and every cell are deleted and the new collection is
// re-emitted in one patch, leaving no orphaned tails.
func replaceRDFList(graph string, owlClassIRI string, propIRI string, predicate string, newList string, lastModified string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH %s:shacl\n", graph)
	sb.WriteString("DELETE {\n")
	fmt.Fprintf(&sb, "    ?prop %s ?list .\n", predicate)
	sb.WriteString("    ?z rdf:first ?head ;\n        rdf:rest ?tail .\n")
	sb.WriteString("}\n")
	if newList != "" {
		fmt.Fprintf(&sb, "INSERT {\n    ?prop %s %s .\n}\n", predicate, newList)
	}
	sb.WriteString("WHERE {\n")
	if owlClassIRI != "" {
		fmt.Fprintf(&sb, "    %sShape sh:property ?prop .\n", owlClassIRI)
		fmt.Fprintf(&sb, "    ?prop sh:path %s .\n", propIRI)
	} else {
		fmt.Fprintf(&sb, "    BIND(%sShape as ?prop)\n", propIRI)
	}
	fmt.Fprintf(&sb, "    ?prop %s ?list .\n", predicate)
	sb.WriteString("    ?list rdf:rest* ?z .\n")
	sb.WriteString("    ?z rdf:first ?head ;\n        rdf:rest ?tail .\n")
	fmt.Fprintf(&sb, "    ?prop dcterms:modified ?modified .\n")
	fmt.Fprintf(&sb, "    FILTER(?modified = %s)\n", lastModified)
	sb.WriteString("}")
	return sb.String()
}

// langStringPatches renders one guarded patch per changed language of a
// LangString attribute.
func langStringPatches(ls *dtypes.LangString, graphClause string, subjectPattern func(sb *strings.Builder), predicate string, lastModified string) []string {
	var patches []string
	for lang, change := range ls.Changeset() {
		var sb strings.Builder
		sb.WriteString(graphClause)
		if change.Action != dtypes.ActionCreate {
			fmt.Fprintf(&sb, "DELETE {\n    ?subj %s \"%s\"@%s .\n}\n", predicate, escapeForSPARQL(change.Old), lang)
		}
		if change.Action != dtypes.ActionDelete {
			current, _ := ls.Get(lang)
			fmt.Fprintf(&sb, "INSERT {\n    ?subj %s \"%s\"@%s .\n}\n", predicate, escapeForSPARQL(current), lang)
		}
		sb.WriteString("WHERE {\n")
		subjectPattern(&sb)
		if change.Action != dtypes.ActionCreate {
			fmt.Fprintf(&sb, "    ?subj %s \"%s\"@%s .\n", predicate, escapeForSPARQL(change.Old), lang)
		}
		if lastModified != "" {
			fmt.Fprintf(&sb, "    ?subj dcterms:modified ?modified .\n")
			fmt.Fprintf(&sb, "    FILTER(?modified = %s)\n", lastModified)
		}
		sb.WriteString("}")
		patches = append(patches, sb.String())
	}
	return patches
}

func escapeForSPARQL(s string) string {
	return xsd.EscapeRDF(s)
}
