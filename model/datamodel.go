package model

import (
	"fmt"
	"strings"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/cache"
	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// ChildChange is one entry in a data model's change-set: a child entity
// was added, replaced in place (MODIFY) or removed.
type ChildChange struct {
	Old    any
	Action dtypes.Action
}

// DataModel is the coherent, project-scoped bundle of external ontology
// references, standalone properties and resource classes. The SHACL graph
// carries schema:version, the OWL graph owl:versionInfo; both must agree.
type DataModel struct {
	Model
	project *Project
	graph   xsd.NCName
	version SemanticVersion

	extOntos    map[xsd.QName]*ExternalOntology
	propClasses map[xsd.QName]*PropertyClass
	resClasses  map[xsd.QName]*ResourceClass
	extOrder    []xsd.QName
	propOrder   []xsd.QName
	resOrder    []xsd.QName

	changeset map[xsd.QName]ChildChange
}

// NewDataModel builds an empty data model for a project.
func NewDataModel(con connection.IConnection, project *Project) *DataModel {
	return &DataModel{
		Model:       Model{con: con},
		project:     project,
		graph:       project.ShortName(),
		version:     InitialVersion,
		extOntos:    map[xsd.QName]*ExternalOntology{},
		propClasses: map[xsd.QName]*PropertyClass{},
		resClasses:  map[xsd.QName]*ResourceClass{},
		changeset:   map[xsd.QName]ChildChange{},
	}
}

// Project returns the owning project.
func (dm *DataModel) Project() *Project { return dm.project }

// Version returns the model version.
func (dm *DataModel) Version() SemanticVersion { return dm.version }

// cacheKey is the artifact cache key of a project's data model.
func (dm *DataModel) cacheKey() string {
	return string(dm.graph) + ":shacl"
}

// Get routes an indexed access to the first non-empty map holding the key.
func (dm *DataModel) Get(key xsd.QName) any {
	if e, ok := dm.extOntos[key]; ok {
		return e
	}
	if p, ok := dm.propClasses[key]; ok {
		return p
	}
	if r, ok := dm.resClasses[key]; ok {
		return r
	}
	return nil
}

// GetResourceClass returns the resource class under the key.
func (dm *DataModel) GetResourceClass(key xsd.QName) (*ResourceClass, bool) {
	rc, ok := dm.resClasses[key]
	return rc, ok
}

// GetPropertyClass returns the standalone property under the key.
func (dm *DataModel) GetPropertyClass(key xsd.QName) (*PropertyClass, bool) {
	p, ok := dm.propClasses[key]
	return p, ok
}

// ExternalOntologies returns the reference keys in insertion order.
func (dm *DataModel) ExternalOntologies() []xsd.QName {
	return append([]xsd.QName(nil), dm.extOrder...)
}

// PropertyClasses returns the standalone property keys in insertion order.
func (dm *DataModel) PropertyClasses() []xsd.QName {
	return append([]xsd.QName(nil), dm.propOrder...)
}

// ResourceClasses returns the resource class keys in insertion order.
func (dm *DataModel) ResourceClasses() []xsd.QName {
	return append([]xsd.QName(nil), dm.resOrder...)
}

// AddExternalOntology registers an external ontology reference.
func (dm *DataModel) AddExternalOntology(e *ExternalOntology) error {
	key := e.QName()
	if _, exists := dm.extOntos[key]; exists {
		return oldaperror.New(oldaperror.AlreadyExists, "external ontology %q already referenced", key)
	}
	dm.extOntos[key] = e
	dm.extOrder = append(dm.extOrder, key)
	dm.changeset[key] = ChildChange{Action: dtypes.ActionCreate}
	return nil
}

// AddPropertyClass registers a standalone property. An existing key cannot
// be replaced; update or delete it instead.
func (dm *DataModel) AddPropertyClass(p *PropertyClass) error {
	if p.Internal() != "" {
		return oldaperror.New(oldaperror.Inconsistency,
			"property %q is internal and cannot stand alone in a data model", p.PropertyClassIRI())
	}
	key, ok := p.PropertyClassIRI().AsQName()
	if !ok {
		return oldaperror.New(oldaperror.Value, "property IRI %q is not a QName", p.PropertyClassIRI())
	}
	if _, exists := dm.propClasses[key]; exists {
		return oldaperror.New(oldaperror.AlreadyExists,
			"property class %q already exists; update or delete it", key)
	}
	dm.propClasses[key] = p
	dm.propOrder = append(dm.propOrder, key)
	p.SetNotifier(func() { dm.recordModify(key) })
	if !p.FromStore() {
		dm.changeset[key] = ChildChange{Action: dtypes.ActionCreate}
	}
	return nil
}

// AddResourceClass registers a resource class. An existing key cannot be
// replaced; update or delete it instead.
func (dm *DataModel) AddResourceClass(rc *ResourceClass) error {
	key, ok := rc.OwlClassIRI().AsQName()
	if !ok {
		return oldaperror.New(oldaperror.Value, "class IRI %q is not a QName", rc.OwlClassIRI())
	}
	if _, exists := dm.resClasses[key]; exists {
		return oldaperror.New(oldaperror.AlreadyExists,
			"resource class %q already exists; update or delete it", key)
	}
	dm.resClasses[key] = rc
	dm.resOrder = append(dm.resOrder, key)
	rc.SetNotifier(func() { dm.recordModify(key) })
	if !rc.FromStore() {
		dm.changeset[key] = ChildChange{Action: dtypes.ActionCreate}
	}
	return nil
}

// Remove records the deletion of a child entity.
func (dm *DataModel) Remove(key xsd.QName) error {
	if e, ok := dm.extOntos[key]; ok {
		delete(dm.extOntos, key)
		dm.extOrder = removeQName(dm.extOrder, key)
		dm.changeset[key] = ChildChange{Old: e, Action: dtypes.ActionDelete}
		return nil
	}
	if p, ok := dm.propClasses[key]; ok {
		delete(dm.propClasses, key)
		dm.propOrder = removeQName(dm.propOrder, key)
		dm.changeset[key] = ChildChange{Old: p, Action: dtypes.ActionDelete}
		return nil
	}
	if r, ok := dm.resClasses[key]; ok {
		delete(dm.resClasses, key)
		dm.resOrder = removeQName(dm.resOrder, key)
		dm.changeset[key] = ChildChange{Old: r, Action: dtypes.ActionDelete}
		return nil
	}
	return oldaperror.New(oldaperror.NotFound, "no child %q in data model", key)
}

func removeQName(list []xsd.QName, key xsd.QName) []xsd.QName {
	for i, q := range list {
		if q == key {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// recordModify notes that a child mutated in place.
func (dm *DataModel) recordModify(key xsd.QName) {
	if _, ok := dm.changeset[key]; !ok {
		dm.changeset[key] = ChildChange{Action: dtypes.ActionModify}
	}
}

// Changeset returns the recorded child changes.
func (dm *DataModel) Changeset() map[xsd.QName]ChildChange {
	return dm.changeset
}

// ClearChangeset forgets all recorded changes, recursing into children.
func (dm *DataModel) ClearChangeset() {
	for _, p := range dm.propClasses {
		p.ClearChangeset()
	}
	for _, rc := range dm.resClasses {
		rc.ClearChangeset()
	}
	dm.changeset = map[xsd.QName]ChildChange{}
}

// checkPermissions verifies the actor may manage the project's model: root
// or ADMIN_MODEL in the project.
func (dm *DataModel) checkPermissions() error {
	actor := dm.con.UserData()
	if actor == nil {
		return oldaperror.New(oldaperror.NoPermission, "no permission: not logged in")
	}
	if actor.IsRoot() {
		return nil
	}
	if actor.HasAdminPermission(dm.project.IRI(), auth.AdminModel) {
		return nil
	}
	return oldaperror.New(oldaperror.NoPermission,
		"actor %q does not hold %s in project %q", actor.UserID, auth.AdminModel, dm.project.ShortName())
}

// ReadDataModel reads a project's data model, preferring the artifact
// cache. The store path verifies the SHACL and OWL versions agree, then
// materializes the standalone properties and the resource classes.
func ReadDataModel(con connection.IConnection, project *Project, ignoreCache bool) (*DataModel, error) {
	store := cache.Default()
	key := string(project.ShortName()) + ":shacl"
	if !ignoreCache {
		if artifact, hit, err := store.Get(key); err == nil && hit {
			if dm, err := decodeDataModelArtifact(con, project, artifact); err == nil {
				return dm, nil
			}
		}
	}

	ctx := con.Context()
	shaclVersion := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?version
WHERE {
    GRAPH %s:shacl {
        %s:shapes schema:version ?version .
    }
}`, project.ShortName(), project.ShortName())
	qp, err := con.QuerySelect(shaclVersion)
	if err != nil {
		return nil, err
	}
	if qp.Len() == 0 {
		return nil, oldaperror.New(oldaperror.NotFound, "datamodel %q not found", project.Graph("shacl"))
	}
	row, _ := qp.Row(0)
	version, err := ParseSemanticVersion(lexical(row["version"]))
	if err != nil {
		return nil, err
	}

	owlVersion := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?version
FROM %s:onto
WHERE {
    %s:ontology owl:versionInfo ?version .
}`, project.ShortName(), project.ShortName())
	qp, err = con.QuerySelect(owlVersion)
	if err != nil {
		return nil, err
	}
	if qp.Len() == 0 {
		return nil, oldaperror.New(oldaperror.NotFound, "datamodel %q not found", project.Graph("onto"))
	}
	row, _ = qp.Row(0)
	owlV, err := ParseSemanticVersion(lexical(row["version"]))
	if err != nil {
		return nil, err
	}
	if owlV != version {
		return nil, oldaperror.New(oldaperror.Inconsistency,
			"version of SHACL (%s) and OWL (%s) do not match", version, owlV)
	}

	dm := NewDataModel(con, project)
	dm.version = version

	ontos, err := searchExternalOntologies(con, project)
	if err != nil {
		return nil, err
	}
	for _, onto := range ontos {
		dm.extOntos[onto.QName()] = onto
		dm.extOrder = append(dm.extOrder, onto.QName())
	}

	propQuery := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?prop
WHERE {
    GRAPH %s:shacl {
        ?prop a sh:PropertyShape
    }
}`, project.ShortName())
	qp, err = con.QuerySelect(propQuery)
	if err != nil {
		return nil, err
	}
	saProps := map[xsd.IRI]*PropertyClass{}
	for _, r := range qp.Rows() {
		propShape, ok := r["prop"]
		if !ok {
			continue
		}
		propIRI := xsd.IRIFromRDF(strings.TrimSuffix(propShape.String(), "Shape"))
		prop, err := ReadPropertyClass(con, project, propIRI)
		if err != nil {
			return nil, err
		}
		prop.ForceExternal()
		saProps[propIRI] = prop
		if key, ok := propIRI.AsQName(); ok {
			dm.propClasses[key] = prop
			dm.propOrder = append(dm.propOrder, key)
		}
	}

	resQuery := ctx.SPARQLPrologue() + fmt.Sprintf(`
SELECT ?shape
FROM %s:shacl
WHERE {
    ?shape a sh:NodeShape
}`, project.ShortName())
	qp, err = con.QuerySelect(resQuery)
	if err != nil {
		return nil, err
	}
	for _, r := range qp.Rows() {
		shapeVal, ok := r["shape"]
		if !ok {
			continue
		}
		classIRI := xsd.IRIFromRDF(strings.TrimSuffix(shapeVal.String(), "Shape"))
		rc, err := ReadResourceClass(con, project, classIRI, saProps)
		if err != nil {
			return nil, err
		}
		if key, ok := classIRI.AsQName(); ok {
			dm.resClasses[key] = rc
			dm.resOrder = append(dm.resOrder, key)
		}
	}

	for key, p := range dm.propClasses {
		key := key
		p.SetNotifier(func() { dm.recordModify(key) })
	}
	for key, rc := range dm.resClasses {
		key := key
		rc.SetNotifier(func() { dm.recordModify(key) })
	}

	if artifact, err := dm.encodeArtifact(); err == nil {
		store.Set(key, artifact)
	}
	dm.ClearChangeset()
	return dm, nil
}

// Create writes the whole data model in one transactional INSERT DATA:
// the version markers, every external reference, every standalone property
// and every resource class, split into the :shacl and :onto graph blocks.
// Re-creation of an existing model is refused.
func (dm *DataModel) Create() error {
	if err := dm.checkPermissions(); err != nil {
		return err
	}
	timestamp := xsd.DateTimeNow()
	ctx := dm.con.Context()

	exists, err := dm.con.QueryAsk(ctx.SPARQLPrologue() +
		fmt.Sprintf("ASK { GRAPH %s:shacl { ?s ?p ?o } }", dm.graph))
	if err != nil {
		return err
	}
	if exists {
		return oldaperror.New(oldaperror.AlreadyExists, "datamodel %q already exists", dm.graph)
	}

	var sb strings.Builder
	sb.WriteString(ctx.SPARQLPrologue())
	sb.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&sb, "    GRAPH %s:shacl {\n", dm.graph)
	fmt.Fprintf(&sb, "        %s:shapes schema:version %s .\n\n", dm.graph, dm.version.ToRDF())
	for _, key := range dm.extOrder {
		sb.WriteString(dm.extOntos[key].CreateSHACL(2))
		sb.WriteString("\n")
	}
	for _, key := range dm.propOrder {
		prop := dm.propClasses[key]
		if prop.Internal() != "" {
			return oldaperror.New(oldaperror.Inconsistency,
				"property class %q is internal and cannot stand alone", prop.PropertyClassIRI())
		}
		sb.WriteString(prop.CreateSHACL(timestamp, nil, 2))
		sb.WriteString("\n")
	}
	for _, key := range dm.resOrder {
		sb.WriteString(dm.resClasses[key].CreateSHACL(timestamp, 1))
		sb.WriteString("\n")
	}
	sb.WriteString("    }\n\n")
	fmt.Fprintf(&sb, "    GRAPH %s:onto {\n", dm.graph)
	fmt.Fprintf(&sb, "        %s:ontology a owl:Ontology ;\n", dm.graph)
	fmt.Fprintf(&sb, "        owl:versionInfo %s ;\n", dm.version.ToRDF())
	fmt.Fprintf(&sb, "        owl:versionIRI <http://oldap.org/ontology/%s/version/%s> .\n\n", dm.graph, dm.version)
	for _, key := range dm.propOrder {
		sb.WriteString(dm.propClasses[key].CreateOWLPart1(timestamp, 2))
	}
	for _, key := range dm.resOrder {
		sb.WriteString(dm.resClasses[key].CreateOWL(timestamp, 0))
	}
	sb.WriteString("    }\n}\n")

	if err := dm.con.TransactionStart(); err != nil {
		return err
	}
	if err := dm.con.TransactionUpdate(sb.String()); err != nil {
		dm.con.TransactionAbort()
		return err
	}
	if err := dm.con.TransactionCommit(); err != nil {
		dm.con.TransactionAbort()
		return err
	}
	for _, key := range dm.propOrder {
		dm.propClasses[key].setCreationMetadata(timestamp)
		dm.propClasses[key].fromStore = true
	}
	for _, key := range dm.resOrder {
		rc := dm.resClasses[key]
		rc.setCreationMetadata(timestamp)
		rc.fromStore = true
		for _, hp := range rc.properties {
			if hp.Prop() != nil {
				hp.Prop().setCreationMetadata(timestamp)
				hp.Prop().fromStore = true
			}
		}
	}
	dm.setCreationMetadata(timestamp)
	dm.ClearChangeset()

	if artifact, err := dm.encodeArtifact(); err == nil {
		cache.Default().Set(dm.cacheKey(), artifact)
	}
	return nil
}

// Update dispatches every recorded child change to the child's own
// create/update/delete and invalidates the artifact cache.
func (dm *DataModel) Update() error {
	if err := dm.checkPermissions(); err != nil {
		return err
	}
	for key, change := range dm.changeset {
		switch child := dm.Get(key).(type) {
		case *PropertyClass:
			switch change.Action {
			case dtypes.ActionCreate:
				if err := child.Create(nil); err != nil {
					return err
				}
			case dtypes.ActionModify:
				if err := child.Update(); err != nil {
					return err
				}
			}
		case *ResourceClass:
			switch change.Action {
			case dtypes.ActionCreate:
				if err := child.Create(); err != nil {
					return err
				}
			case dtypes.ActionModify:
				if err := child.Update(); err != nil {
					return err
				}
			}
		case nil:
			if change.Action != dtypes.ActionDelete {
				continue
			}
			switch old := change.Old.(type) {
			case *PropertyClass:
				if err := old.DeleteFromStore(); err != nil {
					return err
				}
			case *ResourceClass:
				if err := old.DeleteFromStore(); err != nil {
					return err
				}
			}
		}
	}
	dm.ClearChangeset()
	cache.Default().Delete(dm.cacheKey())
	return nil
}

// Delete drops the project's shacl and onto graphs in one transaction and
// invalidates the artifact cache.
func (dm *DataModel) Delete() error {
	if err := dm.checkPermissions(); err != nil {
		return err
	}
	ctx := dm.con.Context()
	prologue := ctx.SPARQLPrologue()
	shacl := prologue + fmt.Sprintf("DELETE WHERE { GRAPH %s:shacl { ?s ?p ?o } }", dm.graph)
	onto := prologue + fmt.Sprintf("DELETE WHERE { GRAPH %s:onto { ?s ?p ?o } }", dm.graph)

	if err := dm.con.TransactionStart(); err != nil {
		return err
	}
	if err := dm.con.TransactionUpdate(shacl); err != nil {
		dm.con.TransactionAbort()
		return err
	}
	if err := dm.con.TransactionUpdate(onto); err != nil {
		dm.con.TransactionAbort()
		return err
	}
	if err := dm.con.TransactionCommit(); err != nil {
		dm.con.TransactionAbort()
		return err
	}
	cache.Default().Delete(dm.cacheKey())
	return nil
}
