// Package connection implements the session against an RDF4J-compatible
// SPARQL endpoint (GraphDB, RDF4J server). It covers authentication with
// bcrypt-checked credentials or a signed session token, plain and
// transactional SPARQL, bulk Turtle/TriG upload and graph maintenance.
//
// Transactions follow the RDF4J protocol: POST to /transactions returns the
// transaction URL in the Location header; QUERY and UPDATE actions are
// posted to that URL; PUT ?action=COMMIT commits and DELETE aborts.
package connection

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/common"
	"oldap.evalgo.org/config"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// Options configures a new Connection. Zero values fall back to the
// environment configuration.
type Options struct {
	Server      string
	Repo        string
	UserID      string
	Credentials string
	Token       string
	DBUser      string
	DBPassword  string
	ContextName string
}

// Connection is a session against one repository of a SPARQL endpoint. A
// session holds at most one open transaction at a time and is not safe for
// concurrent use; concurrency comes from independent sessions.
type Connection struct {
	server         string
	repo           string
	dbUser         string
	dbPassword     string
	contextName    string
	queryURL       string
	updateURL      string
	transactionURL string
	userData       *auth.UserData
	token          string
	tokens         *auth.TokenService
	client         *http.Client
}

// New establishes a session. Authentication happens either through a
// session token or through userId and credentials checked against the
// bcrypt hash stored in the admin graph. Sessions without credentials run
// as the "unknown" user. On login the project namespaces found in the admin
// graph are registered in the session's context.
func New(opts Options) (*Connection, error) {
	cfg := config.FromEnv()
	con := &Connection{
		server:      firstOf(opts.Server, cfg.TripleStore.Server),
		repo:        firstOf(opts.Repo, cfg.TripleStore.Repo),
		dbUser:      firstOf(opts.DBUser, cfg.TripleStore.User),
		dbPassword:  firstOf(opts.DBPassword, cfg.TripleStore.Password),
		contextName: firstOf(opts.ContextName, context.DefaultContextName),
		tokens:      auth.NewTokenService(cfg.JWTSecret),
		client:      &http.Client{},
	}
	con.queryURL = con.server + "/repositories/" + con.repo
	con.updateURL = con.queryURL + "/statements"

	if opts.Token != "" {
		user, err := con.tokens.ValidateToken(opts.Token)
		if err != nil {
			common.Logger.Error("Connection with invalid token")
			return nil, oldaperror.New(oldaperror.NoPermission, "wrong credentials")
		}
		con.userData = user
		con.token = opts.Token
		return con, nil
	}

	userID := opts.UserID
	if userID == "" && opts.Credentials == "" {
		userID = "unknown"
	}
	if _, err := xsd.NewNCName(userID); err != nil {
		return nil, err
	}

	user, err := con.readUserData(xsd.NCName(userID))
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		common.Logger.Error("Connection with wrong credentials")
		return nil, oldaperror.New(oldaperror.NoPermission, "wrong credentials")
	}
	if userID != "unknown" {
		if err := auth.CheckCredentials(opts.Credentials, user.Credentials); err != nil {
			common.Logger.Error("Connection with wrong credentials")
			return nil, oldaperror.New(oldaperror.NoPermission, "wrong credentials")
		}
	}
	con.userData = user
	if err := con.loadProjectPrefixes(); err != nil {
		return nil, err
	}
	// The memberships were read before the project prefixes were known;
	// re-key them by QName so they match the project IRIs used elsewhere.
	projects := make(map[xsd.IRI][]auth.AdminPermission, len(user.InProject))
	for proj, perms := range user.InProject {
		if q, ok := con.Context().IRIToQName(string(proj)); ok {
			proj = xsd.IRI(q)
		}
		projects[proj] = append(projects[proj], perms...)
	}
	user.InProject = projects

	token, err := con.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	con.token = token
	common.Logger.Infof("Connection established. User %q.", user.UserID)
	return con, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Server returns the endpoint base URL.
func (c *Connection) Server() string { return c.server }

// Repo returns the repository name.
func (c *Connection) Repo() string { return c.repo }

// Token returns the session token issued at login.
func (c *Connection) Token() string { return c.token }

// ContextName returns the name of the session's prefix context.
func (c *Connection) ContextName() string { return c.contextName }

// Context returns the session's prefix context.
func (c *Connection) Context() *context.Context { return context.Get(c.contextName) }

// UserData returns the logged-in user record.
func (c *Connection) UserData() *auth.UserData { return c.userData }

// UserIRI returns the IRI of the logged-in user.
func (c *Connection) UserIRI() xsd.IRI {
	if c.userData == nil {
		return ""
	}
	return c.userData.UserIRI
}

func (c *Connection) setAuth(req *http.Request) {
	if c.dbUser != "" && c.dbPassword != "" {
		req.SetBasicAuth(c.dbUser, c.dbPassword)
	}
}

func (c *Connection) requireLogin() error {
	if c.userData == nil {
		return oldaperror.New(oldaperror.Generic, "no login")
	}
	return nil
}

func (c *Connection) postForm(target string, form url.Values, accept string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", accept)
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "failed to send HTTP request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, oldaperror.New(oldaperror.Generic, "SPARQL request failed. Status: %s, Body: %s", resp.Status, string(body))
	}
	return body, nil
}

// Query runs a read query and returns the raw response body in the
// requested format.
func (c *Connection) Query(sparql string, format SparqlResultFormat) ([]byte, error) {
	if err := c.requireLogin(); err != nil {
		common.Logger.Error("Not a valid user session.")
		return nil, err
	}
	return c.postForm(c.queryURL, url.Values{"query": {sparql}}, format.Accept())
}

// QuerySelect runs a SELECT query and decodes the JSON result.
func (c *Connection) QuerySelect(sparql string) (*context.QueryProcessor, error) {
	body, err := c.Query(sparql, FormatJSON)
	if err != nil {
		return nil, err
	}
	return context.NewQueryProcessor(c.Context(), body)
}

// QueryAsk runs an ASK query.
func (c *Connection) QueryAsk(sparql string) (bool, error) {
	body, err := c.Query(sparql, FormatJSON)
	if err != nil {
		return false, err
	}
	return context.AskResult(body)
}

// Update runs a bare SPARQL update outside any transaction.
func (c *Connection) Update(sparql string) error {
	if err := c.requireLogin(); err != nil {
		common.Logger.Error("Not a valid user session.")
		return err
	}
	if _, err := c.postForm(c.updateURL, url.Values{"update": {sparql}}, "*/*"); err != nil {
		common.Logger.Errorf("SPARQL update query failed: %v", err)
		return oldaperror.Wrap(oldaperror.Generic, err, "update query failed")
	}
	return nil
}

// TransactionStart begins a store transaction; the transaction URL arrives
// in the Location header.
func (c *Connection) TransactionStart() error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.queryURL+"/transactions", nil)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "*/*")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "start of transaction failed")
	}
	defer resp.Body.Close()
	location := resp.Header.Get("Location")
	if location == "" {
		return oldaperror.New(oldaperror.Generic, "start of transaction failed: no location header")
	}
	c.transactionURL = location
	return nil
}

// TransactionQuery runs a SELECT inside the open transaction.
func (c *Connection) TransactionQuery(sparql string) (*context.QueryProcessor, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if c.transactionURL == "" {
		return nil, oldaperror.New(oldaperror.Generic, "no transaction started")
	}
	body, err := c.postForm(c.transactionURL, url.Values{"action": {"QUERY"}, "query": {sparql}}, FormatJSON.Accept())
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "transaction query failed")
	}
	return context.NewQueryProcessor(c.Context(), body)
}

// TransactionUpdate runs an update inside the open transaction.
func (c *Connection) TransactionUpdate(sparql string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if c.transactionURL == "" {
		return oldaperror.New(oldaperror.Generic, "no transaction started")
	}
	if _, err := c.postForm(c.transactionURL, url.Values{"action": {"UPDATE"}, "update": {sparql}}, "*/*"); err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "transaction update failed")
	}
	return nil
}

// TransactionCommit commits the open transaction.
func (c *Connection) TransactionCommit() error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if c.transactionURL == "" {
		return oldaperror.New(oldaperror.Generic, "no transaction started")
	}
	req, err := http.NewRequest(http.MethodPut, c.transactionURL+"?action=COMMIT", nil)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "*/*")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "transaction commit failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return oldaperror.New(oldaperror.Generic, "transaction commit failed: %s", string(body))
	}
	c.transactionURL = ""
	return nil
}

// TransactionAbort aborts the open transaction. Aborting without an open
// transaction is a no-op, so error paths can abort unconditionally.
func (c *Connection) TransactionAbort() error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if c.transactionURL == "" {
		return nil
	}
	req, err := http.NewRequest(http.MethodDelete, c.transactionURL, nil)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "*/*")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "transaction abort failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return oldaperror.New(oldaperror.Generic, "transaction abort failed: %s", string(body))
	}
	c.transactionURL = ""
	return nil
}

// InTransaction reports whether a transaction is open.
func (c *Connection) InTransaction() bool {
	return c.transactionURL != ""
}

// ClearGraph deletes a named graph. Only root may clear graphs.
func (c *Connection) ClearGraph(graph xsd.QName) error {
	if c.userData == nil || !c.userData.IsRoot() {
		common.Logger.Error("Connection with no permission to clear graph.")
		return oldaperror.New(oldaperror.NoPermission, "no permission")
	}
	iri, err := c.Context().QNameToIRI(graph)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.updateURL, strings.NewReader("CLEAR GRAPH <"+string(iri)+">"))
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/sparql-update")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "clearing of graph %q failed", graph)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		common.Logger.Errorf("Clearing of graph %q failed: %s", graph, string(body))
		return oldaperror.New(oldaperror.Generic, "clearing of graph %q failed: %s", graph, string(body))
	}
	common.Logger.Infof("Graph %q cleared.", graph)
	return nil
}

// ClearRepo removes all data from the repository.
func (c *Connection) ClearRepo() error {
	if _, err := c.postForm(c.updateURL, url.Values{"update": {"CLEAR ALL"}}, "application/json, text/plain, */*"); err != nil {
		return err
	}
	return nil
}

// UploadTurtle uploads a Turtle or TriG file through the /statements
// endpoint. The call is synchronous: when it returns without error the data
// is loaded. An optional graph name forces all triples into that named
// graph; for TriG it is usually left empty so the quads keep their graphs.
func (c *Connection) UploadTurtle(filename string, graphName string) error {
	var mime string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ttl":
		mime = "text/turtle"
	case ".trig":
		mime = "application/trig"
	default:
		return oldaperror.New(oldaperror.Value, "unsupported RDF extension on %q", filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "cannot read %q", filename)
	}

	target := c.updateURL
	if graphName != "" {
		target += "?context=" + url.QueryEscape("<"+graphName+">")
	}
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(string(data)))
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", mime)
	req.Header.Set("Accept", "text/plain")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "upload of %q failed", filename)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		common.Logger.Errorf("Upload of file %q failed: %s %s", filename, resp.Status, string(body))
		return oldaperror.New(oldaperror.Generic, "upload of %q failed: %s", filename, string(body))
	}
	common.Logger.Infof("File %q uploaded via /statements.", filename)
	return nil
}

// loadProjectPrefixes registers the namespace of every project found in the
// admin graph so project graphs are addressable by QName.
func (c *Connection) loadProjectPrefixes() error {
	ctx := c.Context()
	sparql := ctx.SPARQLPrologue() + `
SELECT ?sname ?ns
WHERE {
    GRAPH oldap:admin {
        ?proj a oldap:Project .
        ?proj oldap:projectShortName ?sname .
        ?proj oldap:namespaceIri ?ns .
    }
}`
	qp, err := c.QuerySelect(sparql)
	if err != nil {
		return err
	}
	for _, row := range qp.Rows() {
		sname, ok := row["sname"]
		if !ok {
			continue
		}
		ns, ok := row["ns"]
		if !ok {
			continue
		}
		nsIRI, err := dtypes.NewNamespaceIRI(valueLexical(ns))
		if err != nil {
			continue
		}
		ctx.Set(xsd.NCName(valueLexical(sname)), nsIRI)
	}
	return nil
}

func valueLexical(v xsd.Value) string {
	if s, ok := v.(xsd.String); ok {
		return s.Value()
	}
	return v.String()
}

var _ IConnection = (*Connection)(nil)
