package testutil

import (
	"testing"

	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"gorm.io/gorm"
)

// FastHasher trades hash strength for test speed.
var FastHasher = utils.NewPasswordHasher(utils.Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
})

// CreateTestUser inserts a user with a hashed password
func CreateTestUser(t *testing.T, db *gorm.DB, username, email, password string, role models.Role) *models.User {
	t.Helper()

	hash, err := FastHasher.Hash(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		Role:            role,
		RoleDescription: role.Description(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// DefaultOwner returns a default owner account
func DefaultOwner(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "owner", "owner@example.com", "Owner123456", models.RoleOwner)
}

// DefaultAdopter returns a default adopter account
func DefaultAdopter(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "adopter", "adopter@example.com", "Adopter123456", models.RoleAdopter)
}

// CreateTestPet inserts an available listing owned by owner
func CreateTestPet(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Pet {
	t.Helper()

	pet := &models.Pet{
		OwnerID:   owner.ID,
		Name:      name,
		Species:   "Dog",
		Age:       3,
		Gender:    models.GenderUnknown,
		Size:      models.SizeMedium,
		Available: true,
	}
	if err := db.Omit("Owner", "Interests", "Favorites").Create(pet).Error; err != nil {
		t.Fatalf("Failed to create test pet: %v", err)
	}
	return pet
}
