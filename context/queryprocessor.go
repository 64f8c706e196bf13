package context

import (
	"encoding/json"

	"oldap.evalgo.org/dtypes"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// sparqlBinding is a single cell of a SPARQL JSON result, following the
// W3C SPARQL Query Results JSON Format.
type sparqlBinding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	XMLLang  string `json:"xml:lang,omitempty"`
}

// sparqlResponse is the complete SELECT response: the head names the query
// variables, the bindings carry one map per result row.
type sparqlResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]sparqlBinding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Row is one decoded result row: variable name to typed value.
type Row map[string]xsd.Value

// QueryProcessor projects the SPARQL JSON result form onto typed rows of
// C1 values: URIs become QNames where a registered namespace matches,
// blank nodes become BNodes, literals are decoded through their datatype.
type QueryProcessor struct {
	names []string
	rows  []Row
}

// NewQueryProcessor decodes a raw SPARQL JSON response body.
func NewQueryProcessor(ctx *Context, body []byte) (*QueryProcessor, error) {
	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "malformed SPARQL result")
	}
	qp := &QueryProcessor{names: resp.Head.Vars}
	for _, binding := range resp.Results.Bindings {
		row := make(Row, len(binding))
		for name, cell := range binding {
			val, err := decodeBinding(ctx, cell)
			if err != nil {
				return nil, err
			}
			row[name] = val
		}
		qp.rows = append(qp.rows, row)
	}
	return qp, nil
}

// AskResult extracts the boolean of an ASK query response.
func AskResult(body []byte) (bool, error) {
	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, oldaperror.Wrap(oldaperror.Generic, err, "malformed SPARQL result")
	}
	if resp.Boolean == nil {
		return false, oldaperror.New(oldaperror.Generic, "response carries no boolean")
	}
	return *resp.Boolean, nil
}

func decodeBinding(ctx *Context, cell sparqlBinding) (xsd.Value, error) {
	switch cell.Type {
	case "uri":
		if q, ok := ctx.IRIToQName(cell.Value); ok {
			return xsd.IRIFromRDF(string(q)), nil
		}
		return xsd.IRIFromRDF(cell.Value), nil
	case "bnode":
		return dtypes.BNodeFromRDF("_:" + cell.Value), nil
	case "literal", "typed-literal":
		if cell.Datatype == "" {
			return xsd.StringFromRDF(cell.Value, cell.XMLLang), nil
		}
		dtQName := cell.Datatype
		if q, ok := ctx.IRIToQName(cell.Datatype); ok {
			dtQName = string(q)
		}
		if dtQName == string(xsd.DatatypeLangString) {
			return xsd.StringFromRDF(cell.Value, cell.XMLLang), nil
		}
		return xsd.FromRDF(cell.Value, xsd.Datatype(dtQName))
	}
	return nil, oldaperror.New(oldaperror.Generic, "unknown binding type %q", cell.Type)
}

// Len returns the number of rows.
func (qp *QueryProcessor) Len() int {
	return len(qp.rows)
}

// Names returns the projected variable names.
func (qp *QueryProcessor) Names() []string {
	return append([]string(nil), qp.names...)
}

// Row returns the i-th row.
func (qp *QueryProcessor) Row(i int) (Row, error) {
	if i < 0 || i >= len(qp.rows) {
		return nil, oldaperror.New(oldaperror.Index, "row %d out of range (%d rows)", i, len(qp.rows))
	}
	return qp.rows[i], nil
}

// Rows returns all rows.
func (qp *QueryProcessor) Rows() []Row {
	return qp.rows
}
