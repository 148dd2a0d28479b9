package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPetNotFound = apperror.NotFound("pet not found")

// PetRepository stores listings. Interest and favorite sets live in join
// tables keyed by (pet_id, user_id), so membership is unique by construction.
// A user's listings are always derived from pets.owner_id.
type PetRepository struct {
	db *gorm.DB
}

func NewPetRepository(db *gorm.DB) *PetRepository {
	return &PetRepository{db: db}
}

func withSets(db *gorm.DB) *gorm.DB {
	return db.Preload("Interests").Preload("Favorites")
}

func (r *PetRepository) CreatePet(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(pet).Error
}

func (r *PetRepository) GetPetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	return getPet(withSets(r.db.WithContext(ctx)), id)
}

func getPet(db *gorm.DB, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	err := db.Where("id = ?", id).First(&pet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &pet, nil
}

// UpdatePet applies column updates and returns the fresh record.
func (r *PetRepository) UpdatePet(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Pet, error) {
	var updated *models.Pet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getPet(tx, id); err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Pet{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		pet, err := getPet(withSets(tx), id)
		if err != nil {
			return err
		}
		updated = pet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePet removes the listing and its membership rows in one transaction.
func (r *PetRepository) DeletePet(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pet_id = ?", id).Delete(&models.PetInterest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("pet_id = ?", id).Delete(&models.PetFavorite{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Pet{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPetNotFound
		}
		return nil
	})
}

// AddInterested reports whether the user was newly added.
func (r *PetRepository) AddInterested(ctx context.Context, petID, userID uuid.UUID) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getPet(tx, petID); err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PetInterest{PetID: petID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		return nil
	})
	return added, err
}

// RemoveInterested reports whether the user was a member.
func (r *PetRepository) RemoveInterested(ctx context.Context, petID, userID uuid.UUID) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getPet(tx, petID); err != nil {
			return err
		}
		res := tx.Where("pet_id = ? AND user_id = ?", petID, userID).Delete(&models.PetInterest{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	return removed, err
}

// ToggleFavorite flips membership and returns the resulting favorite set.
func (r *PetRepository) ToggleFavorite(ctx context.Context, petID, userID uuid.UUID) (bool, []uuid.UUID, error) {
	var (
		favorited bool
		set       []uuid.UUID
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getPet(tx, petID); err != nil {
			return err
		}

		res := tx.Where("pet_id = ? AND user_id = ?", petID, userID).Delete(&models.PetFavorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.PetFavorite{PetID: petID, UserID: userID}).Error
			if err != nil {
				return err
			}
			favorited = true
		}

		var rows []models.PetFavorite
		if err := tx.Where("pet_id = ?", petID).Find(&rows).Error; err != nil {
			return err
		}
		pet := models.Pet{Favorites: rows}
		set = pet.FavoriteIDs()
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return favorited, set, nil
}

func (r *PetRepository) FindAvailable(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	err := withSets(r.db.WithContext(ctx)).
		Where("available = ?", true).
		Order("created_at DESC").
		Find(&pets).Error
	return pets, err
}

func (r *PetRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Pet, error) {
	var pets []models.Pet
	err := withSets(r.db.WithContext(ctx)).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&pets).Error
	return pets, err
}

// FindFavoritedBy returns the user's bookmarked listings with the owner's
// username attached.
func (r *PetRepository) FindFavoritedBy(ctx context.Context, userID uuid.UUID) ([]models.Pet, error) {
	db := r.db.WithContext(ctx)
	favorited := db.Model(&models.PetFavorite{}).Select("pet_id").Where("user_id = ?", userID)

	var pets []models.Pet
	err := withSets(db).
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username")
		}).
		Where("id IN (?)", favorited).
		Order("created_at DESC").
		Find(&pets).Error
	return pets, err
}

// InterestedUsers returns the users in the pet's interested set.
func (r *PetRepository) InterestedUsers(ctx context.Context, petID uuid.UUID) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	if _, err := getPet(db, petID); err != nil {
		return nil, err
	}

	var users []models.User
	err := db.
		Joins("JOIN pet_interests ON pet_interests.user_id = users.id").
		Where("pet_interests.pet_id = ?", petID).
		Order("pet_interests.created_at ASC").
		Find(&users).Error
	return users, err
}
