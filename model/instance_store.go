package model

import (
	"fmt"
	"sort"
	"strings"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// checkAdminPermission evaluates the actor's admin permissions against the
// instance's project: ADMIN_OLDAP on the system project is root; otherwise
// the permission must be held in the project itself.
func (r *ResourceInstance) checkAdminPermission(perm auth.AdminPermission) (bool, error) {
	actor := r.con.UserData()
	if actor == nil {
		return false, oldaperror.New(oldaperror.NoPermission, "no permission: not logged in")
	}
	if actor.IsRoot() {
		return true, nil
	}
	if actor.HasAdminPermission(r.project.IRI(), perm) {
		return true, nil
	}
	return false, oldaperror.New(oldaperror.NoPermission,
		"actor %q does not hold %s in project %q", actor.UserID, perm, r.project.ShortName())
}

// hasDataPermission counts the permission sets the resource grants that
// give the actor a data permission of at least the required level. The
// query runs inside the open transaction when one exists.
func (r *ResourceInstance) hasDataPermission(required auth.DataPermission) (bool, error) {
	ctx := r.con.Context()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT (COUNT(?permset) as ?n)
FROM oldap:onto
FROM shared:onto
FROM %s:onto
FROM NAMED oldap:admin
FROM NAMED %s:data
WHERE {
    BIND(%s as ?iri)
    GRAPH %s:data {
        ?iri oldap:grantsPermission ?permset .
    }
    BIND(%s as ?user)
    GRAPH oldap:admin {
        ?user oldap:hasPermissions ?permset .
        ?permset oldap:givesPermission ?dataPermission .
        ?dataPermission oldap:permissionValue ?permval .
    }
    FILTER(?permval >= %d)
}`, r.graph, r.graph, r.iri.ToRDF(), r.graph, r.con.UserIRI().ToRDF(), required.Numeric())
	var qp *context.QueryProcessor
	var err error
	if r.con.InTransaction() {
		qp, err = r.con.TransactionQuery(sparql)
	} else {
		qp, err = r.con.QuerySelect(sparql)
	}
	if err != nil {
		return false, err
	}
	return countResult(qp, "n")
}

// containerRDF renders the object list of one field.
func containerRDF(container any) []string {
	switch v := container.(type) {
	case *dtypes.LangString:
		var out []string
		for _, s := range v.Values() {
			out = append(out, s.ToRDF())
		}
		return out
	case *dtypes.XsdSet:
		var out []string
		for _, val := range v.Values() {
			out = append(out, val.ToRDF())
		}
		return out
	}
	return nil
}

// Create writes the instance as one transactional INSERT DATA into the
// project's data graph. Creation is gated by ADMIN_CREATE.
func (r *ResourceInstance) Create() error {
	if ok, err := r.checkAdminPermission(auth.AdminCreate); !ok {
		return err
	}
	ctx := r.con.Context()
	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&sb, "    GRAPH %s:data {\n", r.graph)
	fmt.Fprintf(&sb, "        %s a %s:%s", r.iri.ToRDF(), r.graph, r.name)
	for _, propIRI := range r.fieldOrder() {
		objects := containerRDF(r.values[propIRI])
		if len(objects) == 0 {
			continue
		}
		fmt.Fprintf(&sb, " ;\n            %s %s", propIRI.ToRDF(), strings.Join(objects, ", "))
	}
	sb.WriteString(" .\n    }\n}\n")

	if err := r.con.TransactionStart(); err != nil {
		return err
	}
	if err := r.con.TransactionUpdate(sb.String()); err != nil {
		r.con.TransactionAbort()
		return err
	}
	if err := r.con.TransactionCommit(); err != nil {
		r.con.TransactionAbort()
		return err
	}
	r.ClearChangeset()
	return nil
}

// fieldOrder returns the populated fields, declared properties first and
// any system fields not among them afterwards, deterministically.
func (r *ResourceInstance) fieldOrder() []xsd.IRI {
	var order []xsd.IRI
	seen := map[xsd.IRI]bool{}
	for _, iri := range r.propOrder {
		if _, ok := r.values[iri]; ok {
			order = append(order, iri)
			seen[iri] = true
		}
	}
	var rest []string
	for iri := range r.values {
		if !seen[iri] {
			rest = append(rest, string(iri))
		}
	}
	for _, iri := range sortedStrings(rest) {
		order = append(order, xsd.IRI(iri))
	}
	return order
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// Update patches each changed field with a guarded DELETE/INSERT, performs
// the lastModificationDate compare-and-swap and asserts the read-back
// timestamp, all inside one transaction. The required data permission is
// derived from the change set: any non-create change needs update rights,
// touching oldap:grantsPermission needs change-permission rights. Holders
// of ADMIN_RESOURCES bypass the data-permission gate.
func (r *ResourceInstance) Update() error {
	adminResources, _ := r.checkAdminPermission(auth.AdminResources)
	ctx := r.con.Context()
	timestamp := xsd.DateTimeStampNow()

	required := auth.DataExtend
	var patches []string
	for _, field := range r.fieldOrder() {
		change, ok := r.changeset[field]
		if !ok {
			continue
		}
		if field == GrantsPermissionIRI {
			required = auth.DataPermissions
		}
		if change.Action == dtypes.ActionModify {
			continue
		}
		if change.Action != dtypes.ActionCreate && required < auth.DataUpdate {
			required = auth.DataUpdate
		}
		patches = append(patches, r.fieldPatch(field, change))
	}
	for field, change := range r.changeset {
		if change.Action != dtypes.ActionDelete {
			continue
		}
		if _, stillThere := r.values[field]; stillThere {
			continue
		}
		if field == GrantsPermissionIRI {
			required = auth.DataPermissions
		}
		if required < auth.DataUpdate {
			required = auth.DataUpdate
		}
		patches = append(patches, r.fieldPatch(field, change))
	}
	for field, change := range r.changeset {
		if change.Action != dtypes.ActionModify {
			continue
		}
		if required < auth.DataUpdate {
			required = auth.DataUpdate
		}
		patches = append(patches, r.modifyPatches(field)...)
	}
	if len(patches) == 0 {
		return oldaperror.New(oldaperror.UpdateFailed, "nothing to update on %q", r.iri)
	}

	sparql := ctx.SPARQLPrologue() + strings.Join(patches, " ;\n")
	var casPatch, readBack string
	if r.derived {
		lastMod, err := r.lastModificationDate()
		if err != nil {
			return err
		}
		casPatch = ctx.SPARQLPrologue() + fmt.Sprintf(`
WITH %s:data
DELETE {
    ?res oldap:lastModificationDate %s .
    ?res oldap:lastModifiedBy ?contributor .
}
INSERT {
    ?res oldap:lastModificationDate %s .
    ?res oldap:lastModifiedBy %s .
}
WHERE {
    BIND(%s as ?res)
    ?res oldap:lastModificationDate %s .
    ?res oldap:lastModifiedBy ?contributor .
}`, r.graph, lastMod.ToRDF(), timestamp.ToRDF(), r.con.UserIRI().ToRDF(), r.iri.ToRDF(), lastMod.ToRDF())
		readBack = ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?modified
FROM %s:data
WHERE {
    %s oldap:lastModificationDate ?modified
}`, r.graph, r.iri.ToRDF())
	}

	if err := r.con.TransactionStart(); err != nil {
		return err
	}
	if !adminResources {
		allowed, err := r.hasDataPermission(required)
		if err != nil {
			r.con.TransactionAbort()
			return err
		}
		if !allowed {
			r.con.TransactionAbort()
			return oldaperror.New(oldaperror.NoPermission, "no permission to update resource %q", r.iri)
		}
	}
	if err := r.con.TransactionUpdate(sparql); err != nil {
		r.con.TransactionAbort()
		return err
	}
	if r.derived {
		if err := r.con.TransactionUpdate(casPatch); err != nil {
			r.con.TransactionAbort()
			return err
		}
		qp, err := r.con.TransactionQuery(readBack)
		if err != nil {
			r.con.TransactionAbort()
			return err
		}
		if qp.Len() != 1 {
			r.con.TransactionAbort()
			return oldaperror.New(oldaperror.UpdateFailed, "update of %q failed: no timestamp", r.iri)
		}
		row, _ := qp.Row(0)
		if mod, ok := row["modified"].(xsd.DateTimeStamp); !ok || !mod.Equal(timestamp) {
			r.con.TransactionAbort()
			return oldaperror.New(oldaperror.UpdateFailed,
				"update of %q failed: timestamp mismatch", r.iri)
		}
	}
	if err := r.con.TransactionCommit(); err != nil {
		r.con.TransactionAbort()
		return err
	}
	if r.derived {
		r.values["oldap:lastModificationDate"] = dtypes.NewXsdSet(timestamp)
		r.values["oldap:lastModifiedBy"] = dtypes.NewXsdSet(r.con.UserIRI())
	}
	r.ClearChangeset()
	return nil
}

// lastModificationDate reads the instance's current timestamp field.
func (r *ResourceInstance) lastModificationDate() (xsd.DateTimeStamp, error) {
	if set, ok := r.values["oldap:lastModificationDate"].(*dtypes.XsdSet); ok && set.Len() == 1 {
		if ts, ok := set.Values()[0].(xsd.DateTimeStamp); ok {
			return ts, nil
		}
	}
	return xsd.DateTimeStamp{}, oldaperror.New(oldaperror.Inconsistency,
		"resource %q has no lastModificationDate", r.iri)
}

// fieldPatch renders one guarded DELETE/INSERT for a whole-field change.
func (r *ResourceInstance) fieldPatch(field xsd.IRI, change AttributeChange) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# processing field %s\n", field)
	fmt.Fprintf(&sb, "WITH %s:data\n", r.graph)
	oldObjects := containerRDF(change.Old)
	if change.Action != dtypes.ActionCreate && len(oldObjects) > 0 {
		sb.WriteString("DELETE {\n")
		for _, obj := range oldObjects {
			fmt.Fprintf(&sb, "    ?res_iri %s %s .\n", field.ToRDF(), obj)
		}
		sb.WriteString("}\n")
	}
	if change.Action != dtypes.ActionDelete {
		sb.WriteString("INSERT {\n")
		for _, obj := range containerRDF(r.values[field]) {
			fmt.Fprintf(&sb, "    ?res_iri %s %s .\n", field.ToRDF(), obj)
		}
		sb.WriteString("}\n")
	}
	sb.WriteString("WHERE {\n")
	fmt.Fprintf(&sb, "    BIND(%s as ?res_iri)\n", r.iri.ToRDF())
	if change.Action != dtypes.ActionCreate && len(oldObjects) > 0 {
		for _, obj := range oldObjects {
			fmt.Fprintf(&sb, "    ?res_iri %s %s .\n", field.ToRDF(), obj)
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// modifyPatches renders per-value patches for an in-place container
// mutation: per-language patches for a LangString, a set-difference
// DELETE/INSERT for a value set.
func (r *ResourceInstance) modifyPatches(field xsd.IRI) []string {
	switch v := r.values[field].(type) {
	case *dtypes.LangString:
		graphClause := fmt.Sprintf("WITH %s:data\n", r.graph)
		subject := func(sb *strings.Builder) {
			fmt.Fprintf(sb, "    BIND(%s as ?subj)\n", r.iri.ToRDF())
		}
		return langStringPatches(v, graphClause, subject, field.ToRDF(), "")
	case *dtypes.XsdSet:
		oldSet := map[string]bool{}
		for _, val := range v.OldValues() {
			oldSet[val.ToRDF()] = true
		}
		newSet := map[string]bool{}
		for _, val := range v.Values() {
			newSet[val.ToRDF()] = true
		}
		var patches []string
		for _, val := range v.OldValues() {
			if newSet[val.ToRDF()] {
				continue
			}
			patches = append(patches, fmt.Sprintf(
				"WITH %s:data\nDELETE {\n    %s %s %s .\n}\nWHERE {\n    %s %s %s .\n}",
				r.graph, r.iri.ToRDF(), field.ToRDF(), val.ToRDF(),
				r.iri.ToRDF(), field.ToRDF(), val.ToRDF()))
		}
		for _, val := range v.Values() {
			if oldSet[val.ToRDF()] {
				continue
			}
			patches = append(patches, fmt.Sprintf(
				"WITH %s:data\nINSERT {\n    %s %s %s .\n}\nWHERE {}",
				r.graph, r.iri.ToRDF(), field.ToRDF(), val.ToRDF()))
		}
		return patches
	}
	return nil
}

// Delete removes the instance transactionally. A resource referenced by
// any other resource refuses deletion; the actor needs data-delete rights
// unless holding ADMIN_RESOURCES.
func (r *ResourceInstance) Delete() error {
	adminResources, _ := r.checkAdminPermission(auth.AdminResources)
	ctx := r.con.Context()
	inUse := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT (COUNT(?res) as ?n)
WHERE {
    ?res ?prop %s .
}`, r.iri.ToRDF())
	drop := ctx.SPARQLPrologue() + fmt.Sprintf(`
DELETE WHERE {
    GRAPH %s:data {
        %s ?prop ?val .
    }
}`, r.graph, r.iri.ToRDF())

	if err := r.con.TransactionStart(); err != nil {
		return err
	}
	if !adminResources {
		allowed, err := r.hasDataPermission(auth.DataDelete)
		if err != nil {
			r.con.TransactionAbort()
			return err
		}
		if !allowed {
			r.con.TransactionAbort()
			return oldaperror.New(oldaperror.NoPermission, "no permission to delete resource %q", r.iri)
		}
	}
	qp, err := r.con.TransactionQuery(inUse)
	if err != nil {
		r.con.TransactionAbort()
		return err
	}
	referenced, err := countResult(qp, "n")
	if err != nil {
		r.con.TransactionAbort()
		return err
	}
	if referenced {
		r.con.TransactionAbort()
		return oldaperror.New(oldaperror.InUse, "resource %q is in use and cannot be deleted", r.iri)
	}
	if err := r.con.TransactionUpdate(drop); err != nil {
		r.con.TransactionAbort()
		return err
	}
	if err := r.con.TransactionCommit(); err != nil {
		r.con.TransactionAbort()
		return err
	}
	return nil
}

// InstanceType is the generated per-class instance type: the class-level
// attributes plus the constructor and the permission-filtered reader.
type InstanceType struct {
	con      connection.IConnection
	project  *Project
	name     xsd.NCName
	factory  *ResourceInstanceFactory
	class    *ResourceClass
}

// Name returns the class fragment name.
func (t *InstanceType) Name() xsd.NCName { return t.name }

// Class returns the backing resource class.
func (t *InstanceType) Class() *ResourceClass { return t.class }

// New constructs a validated instance. Values are keyed by property
// fragment name; a fresh URN-UUID IRI is minted.
func (t *InstanceType) New(values map[string]any) (*ResourceInstance, error) {
	return newResourceInstance(t.con, t.project, t.class, t.name, "", values)
}

// NewWithIRI constructs a validated instance under a caller-supplied IRI.
func (t *InstanceType) NewWithIRI(iri xsd.IRI, values map[string]any) (*ResourceInstance, error) {
	return newResourceInstance(t.con, t.project, t.class, t.name, iri, values)
}

// Read loads an instance, joining its triples with the actor's permission
// sets and filtering on the data-view threshold. The stored rdf:type must
// match this type's class.
func (t *InstanceType) Read(iri xsd.IRI) (*ResourceInstance, error) {
	ctx := t.con.Context()
	graph := t.project.ShortName()
	sparql := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?predicate ?value
FROM oldap:onto
FROM shared:onto
FROM %s:onto
FROM NAMED oldap:admin
FROM NAMED %s:data
WHERE {
    BIND(%s as ?iri)
    GRAPH %s:data {
        ?iri ?predicate ?value .
        ?iri oldap:grantsPermission ?permset .
    }
    BIND(%s as ?user)
    GRAPH oldap:admin {
        ?user oldap:hasPermissions ?permset .
        ?permset oldap:givesPermission ?dataPermission .
        ?dataPermission oldap:permissionValue ?permval .
    }
    FILTER(?permval >= %d)
}`, graph, graph, iri.ToRDF(), graph, t.con.UserIRI().ToRDF(), auth.DataView.Numeric())
	qp, err := t.con.QuerySelect(sparql)
	if err != nil {
		return nil, err
	}
	if qp.Len() == 0 {
		return nil, oldaperror.New(oldaperror.NotFound, "resource <%s> not found", iri)
	}
	objType := ""
	kwargs := map[string]any{}
	for _, row := range qp.Rows() {
		pred, value := row["predicate"], row["value"]
		if pred == nil || value == nil {
			continue
		}
		predIRI := xsd.IRIFromRDF(pred.String())
		if predIRI.String() == "rdf:type" {
			objType = xsd.IRIFromRDF(value.String()).Fragment()
			continue
		}
		field := predIRI.Fragment()
		if existing, ok := kwargs[field]; ok {
			if list, isList := existing.([]any); isList {
				kwargs[field] = append(list, value)
			} else {
				kwargs[field] = []any{existing, value}
			}
		} else {
			kwargs[field] = value
		}
	}
	if objType == "" {
		return nil, oldaperror.New(oldaperror.NotFound, "resource <%s> not found", iri)
	}
	if objType != string(t.name) {
		return nil, oldaperror.New(oldaperror.Inconsistency,
			"expected class %q, got %q", t.name, objType)
	}
	return newResourceInstance(t.con, t.project, t.class, t.name, iri, kwargs)
}

// ResourceInstanceFactory reads a project's data model and produces the
// generated instance types of its resource classes.
type ResourceInstanceFactory struct {
	con       connection.IConnection
	project   *Project
	datamodel *DataModel
}

// NewResourceInstanceFactory loads the project's data model.
func NewResourceInstanceFactory(con connection.IConnection, project *Project) (*ResourceInstanceFactory, error) {
	dm, err := ReadDataModel(con, project, false)
	if err != nil {
		return nil, err
	}
	return &ResourceInstanceFactory{con: con, project: project, datamodel: dm}, nil
}

// NewResourceInstanceFactoryFromModel wraps an already materialized data
// model.
func NewResourceInstanceFactoryFromModel(con connection.IConnection, project *Project, dm *DataModel) *ResourceInstanceFactory {
	return &ResourceInstanceFactory{con: con, project: project, datamodel: dm}
}

// DataModel returns the materialized model the factory draws from.
func (f *ResourceInstanceFactory) DataModel() *DataModel { return f.datamodel }

// InstanceType returns the generated type for a class fragment name.
func (f *ResourceInstanceFactory) InstanceType(name string) (*InstanceType, error) {
	ncName, err := xsd.NewNCName(name)
	if err != nil {
		return nil, err
	}
	classQName := xsd.MakeQName(f.project.ShortName(), name)
	rc, ok := f.datamodel.GetResourceClass(classQName)
	if !ok {
		return nil, oldaperror.New(oldaperror.NotFound, "resource class %q not found", classQName)
	}
	return &InstanceType{
		con:     f.con,
		project: f.project,
		name:    ncName,
		factory: f,
		class:   rc,
	}, nil
}
