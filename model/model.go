// Package model implements the OLDAP metadata kernel: property classes,
// resource classes, data models and resource instances, each with a
// change-set discipline, a dual SHACL/OWL materialization into the
// project's named graphs and an optimistic concurrency protocol riding on
// the store's transaction endpoint.
package model

import (
	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/xsd"
)

// RDFer is anything with an RDF term form: every xsd value and every
// dtypes container.
type RDFer interface {
	ToRDF() string
}

// AttributeChange is one entry of an entity's change-set: the pre-change
// value and how the attribute changed. For MODIFY entries the old value is
// nil; the nested container carries its own change-set.
type AttributeChange struct {
	Old    any
	Action dtypes.Action
}

// Model is the common base of every metadata entity: the store session and
// the dcterms audit fields. The modified timestamp doubles as the
// optimistic-concurrency token.
type Model struct {
	con         connection.IConnection
	creator     xsd.IRI
	created     xsd.DateTime
	contributor xsd.IRI
	modified    xsd.DateTime
}

// Connection returns the store session.
func (m *Model) Connection() connection.IConnection { return m.con }

// Creator returns the dcterms:creator audit field.
func (m *Model) Creator() xsd.IRI { return m.creator }

// Created returns the dcterms:created audit field.
func (m *Model) Created() xsd.DateTime { return m.created }

// Contributor returns the dcterms:contributor audit field.
func (m *Model) Contributor() xsd.IRI { return m.contributor }

// Modified returns the dcterms:modified audit field, the concurrency token.
func (m *Model) Modified() xsd.DateTime { return m.modified }

// setCreationMetadata stamps the audit fields after a successful create.
func (m *Model) setCreationMetadata(timestamp xsd.DateTime) {
	m.creator = m.con.UserIRI()
	m.created = timestamp
	m.contributor = m.con.UserIRI()
	m.modified = timestamp
}

// setUpdateMetadata stamps contributor and modified after a successful
// update.
func (m *Model) setUpdateMetadata(timestamp xsd.DateTime) {
	m.contributor = m.con.UserIRI()
	m.modified = timestamp
}
