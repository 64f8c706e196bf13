package connection

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/xsd"
)

// stubStore fakes the RDF4J REST surface: the query endpoint, the
// statements endpoint and the transaction protocol with its Location
// header handshake.
type stubStore struct {
	server          *httptest.Server
	credentialsHash string
	rootUser        bool
	queries         []string
	updates         []string
	txnUpdates      []string
	committed       atomic.Bool
	aborted         atomic.Bool
}

func newStubStore(t *testing.T, rootUser bool) *stubStore {
	t.Helper()
	hash, err := auth.HashCredentials("RioGrande")
	require.NoError(t, err)
	s := &stubStore{credentialsHash: hash, rootUser: rootUser}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repositories/oldap", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		query := r.FormValue("query")
		s.queries = append(s.queries, query)
		w.Header().Set("Content-Type", "application/sparql-results+json")
		switch {
		case strings.Contains(query, "oldap:userId"):
			fmt.Fprint(w, s.userResult())
		case strings.Contains(query, "oldap:projectShortName"):
			fmt.Fprint(w, `{"head":{"vars":["sname","ns"]},"results":{"bindings":[
                {"sname":{"type":"literal","value":"test"},
                 "ns":{"type":"literal","value":"http://oldap.org/test#"}}]}}`)
		case strings.Contains(query, "ASK"):
			fmt.Fprint(w, `{"head":{},"boolean":false}`)
		default:
			fmt.Fprint(w, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
		}
	})
	mux.HandleFunc("POST /repositories/oldap/statements", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		s.updates = append(s.updates, r.FormValue("update"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /repositories/oldap/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", s.server.URL+"/repositories/oldap/transactions/txn1")
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/repositories/oldap/transactions/txn1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			r.ParseForm()
			switch r.FormValue("action") {
			case "QUERY":
				w.Header().Set("Content-Type", "application/sparql-results+json")
				fmt.Fprint(w, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
			case "UPDATE":
				s.txnUpdates = append(s.txnUpdates, r.FormValue("update"))
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusBadRequest)
			}
		case http.MethodPut:
			s.committed.Store(true)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			s.aborted.Store(true)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *stubStore) userResult() string {
	project := "http://oldap.org/test#project"
	perm := "http://oldap.org/base#ADMIN_CREATE"
	if s.rootUser {
		project = "http://oldap.org/base#SystemProject"
		perm = "http://oldap.org/base#ADMIN_OLDAP"
	}
	return fmt.Sprintf(`{"head":{"vars":["user","credentials","isActive","project","adminPerm","permset"]},
"results":{"bindings":[
  {"user":{"type":"uri","value":"https://orcid.org/0000-0003-1681-4036"},
   "credentials":{"type":"literal","value":%q},
   "isActive":{"type":"literal","value":"true","datatype":"http://www.w3.org/2001/XMLSchema#boolean"},
   "project":{"type":"uri","value":%q},
   "adminPerm":{"type":"uri","value":%q},
   "permset":{"type":"uri","value":"http://oldap.org/base#GenericView"}}
]}}`, s.credentialsHash, project, perm)
}

func (s *stubStore) connect(t *testing.T, contextName string) *Connection {
	t.Helper()
	con, err := New(Options{
		Server:      s.server.URL,
		Repo:        "oldap",
		UserID:      "rosenth",
		Credentials: "RioGrande",
		ContextName: contextName,
	})
	require.NoError(t, err)
	return con
}

func TestLoginSuccess(t *testing.T) {
	context.Reset("login-test")
	s := newStubStore(t, false)
	con := s.connect(t, "login-test")

	require.NotNil(t, con.UserData())
	assert.Equal(t, xsd.NCName("rosenth"), con.UserData().UserID)
	assert.Equal(t, xsd.IRI("https://orcid.org/0000-0003-1681-4036"), con.UserIRI())
	assert.NotEmpty(t, con.Token())
	assert.True(t, con.UserData().HasAdminPermission("test:project", auth.AdminCreate))

	// project namespaces discovered at login are registered in the context
	ns, ok := con.Context().Namespace("test")
	assert.True(t, ok)
	assert.Equal(t, "http://oldap.org/test#", string(ns))
}

func TestLoginWrongCredentials(t *testing.T) {
	context.Reset("badlogin-test")
	s := newStubStore(t, false)
	_, err := New(Options{
		Server:      s.server.URL,
		Repo:        "oldap",
		UserID:      "rosenth",
		Credentials: "wrong",
		ContextName: "badlogin-test",
	})
	assert.Error(t, err)
}

func TestLoginByToken(t *testing.T) {
	context.Reset("token-test")
	s := newStubStore(t, false)
	con := s.connect(t, "token-test")

	con2, err := New(Options{
		Server:      s.server.URL,
		Repo:        "oldap",
		Token:       con.Token(),
		ContextName: "token-test",
	})
	require.NoError(t, err)
	assert.Equal(t, xsd.NCName("rosenth"), con2.UserData().UserID)

	_, err = New(Options{
		Server:      s.server.URL,
		Repo:        "oldap",
		Token:       "tampered.token.value",
		ContextName: "token-test",
	})
	assert.Error(t, err)
}

func TestQueryAndUpdate(t *testing.T) {
	context.Reset("query-test")
	s := newStubStore(t, false)
	con := s.connect(t, "query-test")

	qp, err := con.QuerySelect("SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, 0, qp.Len())

	ok, err := con.QueryAsk("ASK { ?s ?p ?o }")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, con.Update("INSERT DATA { <urn:a> <urn:b> <urn:c> }"))
	require.NotEmpty(t, s.updates)
	assert.Contains(t, s.updates[len(s.updates)-1], "INSERT DATA")
}

func TestTransactionProtocol(t *testing.T) {
	context.Reset("txn-test")
	s := newStubStore(t, false)
	con := s.connect(t, "txn-test")

	assert.False(t, con.InTransaction())
	require.NoError(t, con.TransactionStart())
	assert.True(t, con.InTransaction())

	_, err := con.TransactionQuery("SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	require.NoError(t, con.TransactionUpdate("INSERT DATA { <urn:a> <urn:b> <urn:c> }"))
	require.NoError(t, con.TransactionCommit())
	assert.False(t, con.InTransaction())
	assert.True(t, s.committed.Load())
	assert.Len(t, s.txnUpdates, 1)
}

func TestTransactionAbort(t *testing.T) {
	context.Reset("abort-test")
	s := newStubStore(t, false)
	con := s.connect(t, "abort-test")

	require.NoError(t, con.TransactionStart())
	require.NoError(t, con.TransactionAbort())
	assert.False(t, con.InTransaction())
	assert.True(t, s.aborted.Load())

	// aborting without an open transaction is a no-op
	require.NoError(t, con.TransactionAbort())
}

func TestTransactionWithoutStart(t *testing.T) {
	context.Reset("nostart-test")
	s := newStubStore(t, false)
	con := s.connect(t, "nostart-test")

	assert.Error(t, con.TransactionUpdate("INSERT DATA {}"))
	_, err := con.TransactionQuery("SELECT * WHERE {}")
	assert.Error(t, err)
	assert.Error(t, con.TransactionCommit())
}

func TestClearGraphRequiresRoot(t *testing.T) {
	context.Reset("clear-test")
	s := newStubStore(t, false)
	con := s.connect(t, "clear-test")
	err := con.ClearGraph("test:shacl")
	assert.Error(t, err)

	context.Reset("clear-root-test")
	s2 := newStubStore(t, true)
	con2 := s2.connect(t, "clear-root-test")
	con2.Context().Set("test", "http://oldap.org/test#")
	require.NoError(t, con2.ClearGraph("test:shacl"))
}
