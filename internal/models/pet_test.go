package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPet_MarshalJSON_AbsentLocationIsNull(t *testing.T) {
	lng := 12.5
	pet := Pet{ID: uuid.New(), OwnerID: uuid.New(), Name: "Rex", Species: "Dog", Longitude: &lng}

	data, err := json.Marshal(pet)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "location")
	assert.Nil(t, raw["location"], "half a coordinate pair is reported as no location")
	assert.Equal(t, []any{}, raw["favorites"], "empty sets serialize as empty arrays")
	assert.Equal(t, pet.OwnerID.String(), raw["owner"])
}

func TestPet_MarshalJSON_MembershipSets(t *testing.T) {
	petID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()
	pet := Pet{
		ID:        petID,
		Interests: []PetInterest{{PetID: petID, UserID: u1}},
		Favorites: []PetFavorite{{PetID: petID, UserID: u2}, {PetID: petID, UserID: u1}},
		Owner:     &User{Username: "alice"},
	}
	pet.SetLocation(&Location{Longitude: -73.98, Latitude: 40.75})

	data, err := json.Marshal(pet)
	require.NoError(t, err)

	var decoded Pet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []uuid.UUID{u1}, decoded.InterestedAdopterIDs())
	assert.ElementsMatch(t, []uuid.UUID{u1, u2}, decoded.FavoriteIDs())
	require.NotNil(t, decoded.Location())
	assert.Equal(t, 40.75, decoded.Location().Latitude)
	require.NotNil(t, decoded.Owner)
	assert.Equal(t, "alice", decoded.Owner.Username)
}

func TestEnums(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.True(t, RoleAdopter.Valid())
	assert.False(t, Role("admin").Valid())
	assert.True(t, RoleOwner.CanListPets())
	assert.False(t, RoleAdopter.CanListPets())
	assert.Equal(t, "Pet Adopter", RoleAdopter.Description())

	assert.True(t, GenderUnknown.Valid())
	assert.False(t, Gender("male").Valid(), "enumerations are case-sensitive")
	assert.True(t, SizeLarge.Valid())
	assert.False(t, Size("Huge").Valid())
}
