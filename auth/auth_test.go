package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

func sampleUser() *UserData {
	return &UserData{
		UserID:   "rosenth",
		UserIRI:  "https://orcid.org/0000-0003-1681-4036",
		IsActive: true,
		InProject: map[xsd.IRI][]AdminPermission{
			"oldap:SystemProject": {AdminOldap},
			"test:project":        {AdminCreate, AdminResources},
		},
		HasPermissions: []xsd.QName{"oldap:GenericView"},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, err := svc.GenerateToken(sampleUser())
	require.NoError(t, err)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, xsd.NCName("rosenth"), user.UserID)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsRoot())
	assert.Contains(t, user.HasPermissions, xsd.QName("oldap:GenericView"))
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").GenerateToken(sampleUser())
	require.NoError(t, err)

	_, err = NewTokenService("secret-b").ValidateToken(token)
	assert.True(t, oldaperror.IsNoPermission(err))
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenService("s").ValidateToken("not.a.token")
	assert.True(t, oldaperror.IsNoPermission(err))
}

func TestAdminPermissions(t *testing.T) {
	user := sampleUser()
	assert.True(t, user.HasAdminPermission("test:project", AdminCreate))
	assert.False(t, user.HasAdminPermission("test:project", AdminUsers))
	assert.False(t, user.HasAdminPermission("other:project", AdminCreate))

	p, err := ParseAdminPermission("ADMIN_CREATE")
	require.NoError(t, err)
	assert.Equal(t, AdminCreate, p)
	p, err = ParseAdminPermission("oldap:ADMIN_MODEL")
	require.NoError(t, err)
	assert.Equal(t, AdminModel, p)
	_, err = ParseAdminPermission("ADMIN_NOPE")
	assert.True(t, oldaperror.IsValue(err))
}

func TestDataPermissionOrdering(t *testing.T) {
	assert.Equal(t, 2, DataView.Numeric())
	assert.Equal(t, 3, DataExtend.Numeric())
	assert.Equal(t, 4, DataUpdate.Numeric())
	assert.Equal(t, 5, DataDelete.Numeric())
	assert.Equal(t, 6, DataPermissions.Numeric())
	assert.True(t, DataView < DataUpdate)

	p, err := ParseDataPermission("oldap:DATA_UPDATE")
	require.NoError(t, err)
	assert.Equal(t, DataUpdate, p)
	assert.Equal(t, "oldap:DATA_UPDATE", p.ToRDF())

	_, err = ParseDataPermission("DATA_EVERYTHING")
	assert.True(t, oldaperror.IsValue(err))
}

func TestCredentials(t *testing.T) {
	hash, err := HashCredentials("RioGrande")
	require.NoError(t, err)
	assert.NoError(t, CheckCredentials("RioGrande", hash))
	assert.True(t, oldaperror.IsNoPermission(CheckCredentials("wrong", hash)))

	_, err = HashCredentials("")
	assert.True(t, oldaperror.IsValue(err))
}
