package auth

import (
	"oldap.evalgo.org/xsd"
)

// UserData is the session user record loaded from the oldap:admin graph at
// login and serialized into the session token.
type UserData struct {
	UserID         xsd.NCName                       `json:"userId"`
	UserIRI        xsd.IRI                          `json:"userIri"`
	IsActive       bool                             `json:"isActive"`
	Credentials    string                           `json:"credentials,omitempty"`
	InProject      map[xsd.IRI][]AdminPermission    `json:"inProject"`
	HasPermissions []xsd.QName                      `json:"hasPermissions"`
}

// HasAdminPermission reports whether the user holds the permission in the
// given project.
func (u *UserData) HasAdminPermission(project xsd.IRI, perm AdminPermission) bool {
	for _, p := range u.InProject[project] {
		if p == perm {
			return true
		}
	}
	return false
}

// IsRoot reports whether the user holds ADMIN_OLDAP on the system project.
func (u *UserData) IsRoot() bool {
	return u.HasAdminPermission(SystemProjectIRI, AdminOldap)
}

// SystemProjectIRI identifies the system project whose ADMIN_OLDAP holders
// are root.
var SystemProjectIRI = xsd.IRI("oldap:SystemProject")
