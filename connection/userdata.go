package connection

import (
	"net/url"

	"oldap.evalgo.org/auth"
	"oldap.evalgo.org/context"
	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// userDataQuery fetches everything the session needs to know about a user:
// the user node with its credentials and active flag, the project
// memberships with their admin permissions, and the attached permission
// sets.
func userDataQuery(ctx *context.Context, userID xsd.NCName) string {
	return ctx.SPARQLPrologue() + `
SELECT ?user ?credentials ?isActive ?project ?adminPerm ?permset
WHERE {
    GRAPH oldap:admin {
        ?user a oldap:User .
        ?user oldap:userId "` + string(userID) + `"^^xsd:NCName .
        OPTIONAL { ?user oldap:credentials ?credentials . }
        OPTIONAL { ?user oldap:isActive ?isActive . }
        OPTIONAL {
            ?user oldap:inProject ?membership .
            ?membership oldap:project ?project .
            ?membership oldap:hasAdminPermission ?adminPerm .
        }
        OPTIONAL { ?user oldap:hasPermissions ?permset . }
    }
}`
}

// readUserData runs the login query. It bypasses the session check because
// no user record exists before the login completes.
func (c *Connection) readUserData(userID xsd.NCName) (*auth.UserData, error) {
	ctx := c.Context()
	body, err := c.postForm(c.queryURL, url.Values{"query": {userDataQuery(ctx, userID)}}, FormatJSON.Accept())
	if err != nil {
		return nil, err
	}
	qp, err := context.NewQueryProcessor(ctx, body)
	if err != nil {
		return nil, err
	}
	return userDataFromQuery(userID, qp)
}

// userDataFromQuery folds the login query's rows into a user record.
func userDataFromQuery(userID xsd.NCName, qp *context.QueryProcessor) (*auth.UserData, error) {
	if qp.Len() == 0 {
		return nil, oldaperror.New(oldaperror.NotFound, "user %q not found", userID)
	}
	user := &auth.UserData{
		UserID:    userID,
		InProject: map[xsd.IRI][]auth.AdminPermission{},
	}
	permsets := map[xsd.QName]bool{}
	for _, row := range qp.Rows() {
		if v, ok := row["user"]; ok {
			user.UserIRI = xsd.IRIFromRDF(v.String())
		}
		if v, ok := row["credentials"]; ok {
			if s, isStr := v.(xsd.String); isStr {
				user.Credentials = s.Value()
			}
		}
		if v, ok := row["isActive"]; ok {
			if b, isBool := v.(xsd.Boolean); isBool {
				user.IsActive = b.Bool()
			}
		}
		if proj, ok := row["project"]; ok {
			if permVal, ok := row["adminPerm"]; ok {
				perm, err := auth.ParseAdminPermission(permVal.String())
				if err != nil {
					return nil, err
				}
				projIRI := xsd.IRIFromRDF(proj.String())
				if !hasPermission(user.InProject[projIRI], perm) {
					user.InProject[projIRI] = append(user.InProject[projIRI], perm)
				}
			}
		}
		if ps, ok := row["permset"]; ok {
			if q, isQ := xsd.IRIFromRDF(ps.String()).AsQName(); isQ && !permsets[q] {
				permsets[q] = true
				user.HasPermissions = append(user.HasPermissions, q)
			}
		}
	}
	return user, nil
}

func hasPermission(perms []auth.AdminPermission, perm auth.AdminPermission) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
