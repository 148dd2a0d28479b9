package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_UnmarshalJSON(t *testing.T) {
	testCases := map[string]Role{
		`"owner"`:   RoleOwner,
		`"ADOPTER"`: RoleAdopter,
		`1`:         RoleOwner,
		`2`:         RoleAdopter,
		`"2"`:       RoleAdopter,
		`null`:      "",
		`""`:        "",
		`3`:         Role("3"),
		`1.5`:       Role("1.5"),
		`"admin"`:   Role("admin"),
	}

	for in, expected := range testCases {
		t.Run(in, func(t *testing.T) {
			var role Role
			require.NoError(t, json.Unmarshal([]byte(in), &role))
			assert.Equal(t, expected, role)
		})
	}
}

func TestRole_UnmarshalJSON_RejectsOtherTypes(t *testing.T) {
	var role Role
	assert.Error(t, json.Unmarshal([]byte(`true`), &role))
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &role))
}

func TestRole_MarshalsAsName(t *testing.T) {
	data, err := json.Marshal(User{Role: RoleOwner})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"role":"owner"`)
}

func TestRoleForDescription(t *testing.T) {
	assert.Equal(t, RoleOwner, RoleForDescription("Pet Owner"))
	assert.Equal(t, RoleAdopter, RoleForDescription(" pet adopter "))
	assert.Equal(t, Role(""), RoleForDescription("Dog lover"))
	assert.Equal(t, Role(""), RoleForDescription(""))
}
