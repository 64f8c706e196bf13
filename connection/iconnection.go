package connection

import (
	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/xsd"
)

// IConnection is the store-session surface the metadata kernel consumes.
// Connection is the production implementation; tests substitute stubs.
type IConnection interface {
	// ContextName returns the name of the prefix context the session uses.
	ContextName() string
	// Context returns the session's prefix context.
	Context() *context.Context
	// UserData returns the logged-in user record, or nil for an
	// unauthenticated session.
	UserData() *auth.UserData
	// UserIRI returns the IRI of the logged-in user.
	UserIRI() xsd.IRI

	// Query runs a read query and returns the raw response body in the
	// requested format.
	Query(sparql string, format SparqlResultFormat) ([]byte, error)
	// QuerySelect runs a SELECT query and decodes the JSON result.
	QuerySelect(sparql string) (*context.QueryProcessor, error)
	// QueryAsk runs an ASK query.
	QueryAsk(sparql string) (bool, error)
	// Update runs a bare SPARQL update outside any transaction.
	Update(sparql string) error

	// TransactionStart begins a store transaction.
	TransactionStart() error
	// TransactionQuery runs a SELECT inside the open transaction.
	TransactionQuery(sparql string) (*context.QueryProcessor, error)
	// TransactionUpdate runs an update inside the open transaction.
	TransactionUpdate(sparql string) error
	// TransactionCommit commits the open transaction.
	TransactionCommit() error
	// TransactionAbort aborts the open transaction. Aborting twice is a
	// no-op.
	TransactionAbort() error
	// InTransaction reports whether a transaction is open.
	InTransaction() bool
}
