package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/connection"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/xsd"
)

// stubConn is a scripted store session for kernel tests: queries are
// answered by a pluggable function, updates are recorded.
type stubConn struct {
	ctxName    string
	user       *auth.UserData
	inTxn      bool
	queryFn    func(sparql string) (string, error)
	updates    []string
	txnUpdates []string
	commits    int
	aborts     int
}

func newStubConn(ctxName string, user *auth.UserData) *stubConn {
	context.Reset(ctxName)
	return &stubConn{ctxName: ctxName, user: user}
}

// emptyResult is the JSON of a SELECT with no rows.
const emptyResult = `{"head":{"vars":[]},"results":{"bindings":[]}}`

// countJSON renders a one-row COUNT result.
func countJSON(name string, n int) string {
	return fmt.Sprintf(`{"head":{"vars":[%q]},"results":{"bindings":[{%q:{"type":"literal","value":"%d","datatype":"http://www.w3.org/2001/XMLSchema#integer"}}]}}`, name, name, n)
}

func (s *stubConn) answer(sparql string) (*context.QueryProcessor, error) {
	payload := emptyResult
	if s.queryFn != nil {
		var err error
		payload, err = s.queryFn(sparql)
		if err != nil {
			return nil, err
		}
	}
	return context.NewQueryProcessor(s.Context(), []byte(payload))
}

func (s *stubConn) ContextName() string       { return s.ctxName }
func (s *stubConn) Context() *context.Context { return context.Get(s.ctxName) }
func (s *stubConn) UserData() *auth.UserData  { return s.user }

func (s *stubConn) UserIRI() xsd.IRI {
	if s.user == nil {
		return ""
	}
	return s.user.UserIRI
}

func (s *stubConn) Query(sparql string, format connection.SparqlResultFormat) ([]byte, error) {
	payload := emptyResult
	if s.queryFn != nil {
		var err error
		payload, err = s.queryFn(sparql)
		if err != nil {
			return nil, err
		}
	}
	return []byte(payload), nil
}

func (s *stubConn) QuerySelect(sparql string) (*context.QueryProcessor, error) {
	return s.answer(sparql)
}

func (s *stubConn) QueryAsk(sparql string) (bool, error) {
	if s.queryFn != nil {
		payload, err := s.queryFn(sparql)
		if err != nil {
			return false, err
		}
		var resp struct {
			Boolean *bool `json:"boolean"`
		}
		if err := json.Unmarshal([]byte(payload), &resp); err == nil && resp.Boolean != nil {
			return *resp.Boolean, nil
		}
	}
	return false, nil
}

func (s *stubConn) Update(sparql string) error {
	s.updates = append(s.updates, sparql)
	return nil
}

func (s *stubConn) TransactionStart() error {
	s.inTxn = true
	return nil
}

func (s *stubConn) TransactionQuery(sparql string) (*context.QueryProcessor, error) {
	return s.answer(sparql)
}

func (s *stubConn) TransactionUpdate(sparql string) error {
	s.txnUpdates = append(s.txnUpdates, sparql)
	return nil
}

func (s *stubConn) TransactionCommit() error {
	s.inTxn = false
	s.commits++
	return nil
}

func (s *stubConn) TransactionAbort() error {
	if s.inTxn {
		s.inTxn = false
		s.aborts++
	}
	return nil
}

func (s *stubConn) InTransaction() bool { return s.inTxn }

var _ connection.IConnection = (*stubConn)(nil)

// allUpdates joins everything written through the stub.
func (s *stubConn) allUpdates() string {
	return strings.Join(append(append([]string{}, s.updates...), s.txnUpdates...), "\n---\n")
}

// testUser returns a user holding the given admin permissions in
// test:project.
func testUser(perms ...auth.AdminPermission) *auth.UserData {
	return &auth.UserData{
		UserID:   "tester",
		UserIRI:  "https://orcid.org/0000-0003-1681-4036",
		IsActive: true,
		InProject: map[xsd.IRI][]auth.AdminPermission{
			"test:project": perms,
		},
	}
}

// rootUser returns a user holding ADMIN_OLDAP on the system project.
func rootUser() *auth.UserData {
	return &auth.UserData{
		UserID:   "root",
		UserIRI:  "https://orcid.org/0000-0000-0000-0001",
		IsActive: true,
		InProject: map[xsd.IRI][]auth.AdminPermission{
			auth.SystemProjectIRI: {auth.AdminOldap},
		},
	}
}

// testProject builds the canonical test project on a stub connection.
func testProject(con *stubConn) *Project {
	return NewProject(con, "test:project", "test", "http://oldap.org/test#")
}
