// Package auth carries the OLDAP permission model and the session token
// machinery: admin permissions scoped to projects, data permissions carried
// by permission sets, JWT session tokens and bcrypt credential checking.
package auth

import (
	"strings"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// AdminPermission authorizes a class of administrative operations within a
// project. ADMIN_OLDAP held on oldap:SystemProject is root.
type AdminPermission string

const (
	AdminOldap          AdminPermission = "oldap:ADMIN_OLDAP"
	AdminUsers          AdminPermission = "oldap:ADMIN_USERS"
	AdminPermissionSets AdminPermission = "oldap:ADMIN_PERMISSION_SETS"
	AdminResources      AdminPermission = "oldap:ADMIN_RESOURCES"
	AdminModel          AdminPermission = "oldap:ADMIN_MODEL"
	AdminCreate         AdminPermission = "oldap:ADMIN_CREATE"
	AdminLists          AdminPermission = "oldap:ADMIN_LISTS"
)

var adminPermissions = map[AdminPermission]bool{
	AdminOldap:          true,
	AdminUsers:          true,
	AdminPermissionSets: true,
	AdminResources:      true,
	AdminModel:          true,
	AdminCreate:         true,
	AdminLists:          true,
}

// ParseAdminPermission resolves the QName form of an admin permission.
func ParseAdminPermission(s string) (AdminPermission, error) {
	p := AdminPermission(s)
	if !strings.HasPrefix(s, "oldap:") {
		p = AdminPermission("oldap:" + s)
	}
	if !adminPermissions[p] {
		return "", oldaperror.New(oldaperror.Value, "unknown admin permission %q", s)
	}
	return p, nil
}

func (p AdminPermission) String() string { return string(p) }

// QName returns the permission's QName in the oldap namespace.
func (p AdminPermission) QName() xsd.QName { return xsd.QName(p) }

// ToRDF emits the bare QName.
func (p AdminPermission) ToRDF() string { return string(p) }

// DataPermission is a ranked capability a permission set grants on the data
// resources pointing at it. The numeric values are total-ordered: holding a
// permission implies every lower one.
type DataPermission int

const (
	DataRestricted  DataPermission = 1
	DataView        DataPermission = 2
	DataExtend      DataPermission = 3
	DataUpdate      DataPermission = 4
	DataDelete      DataPermission = 5
	DataPermissions DataPermission = 6
)

var dataPermissionNames = map[DataPermission]string{
	DataRestricted:  "DATA_RESTRICTED",
	DataView:        "DATA_VIEW",
	DataExtend:      "DATA_EXTEND",
	DataUpdate:      "DATA_UPDATE",
	DataDelete:      "DATA_DELETE",
	DataPermissions: "DATA_PERMISSIONS",
}

// ParseDataPermission resolves the QName form of a data permission.
func ParseDataPermission(s string) (DataPermission, error) {
	name := strings.TrimPrefix(s, "oldap:")
	for p, n := range dataPermissionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, oldaperror.New(oldaperror.Value, "unknown data permission %q", s)
}

func (p DataPermission) String() string { return "oldap:" + dataPermissionNames[p] }

// QName returns the permission's QName in the oldap namespace.
func (p DataPermission) QName() xsd.QName { return xsd.QName(p.String()) }

// Numeric returns the rank used in permission-value filters.
func (p DataPermission) Numeric() int { return int(p) }

// ToRDF emits the bare QName.
func (p DataPermission) ToRDF() string { return p.String() }
