package service

import (
	"context"
	"strings"
	"time"

	"github.com/Baaaki/pet-adoption/internal/apperror"
	"github.com/Baaaki/pet-adoption/internal/cache"
	"github.com/Baaaki/pet-adoption/internal/journal"
	"github.com/Baaaki/pet-adoption/internal/metrics"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/repository"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPetAge = 100

type CreatePetInput struct {
	Name        string
	Species     string
	Breed       string
	Age         *int
	Gender      models.Gender
	Size        models.Size
	Color       string
	Description string
	Available   *bool
	Location    *models.Location
}

// UpdatePetInput is a partial update. Nil fields are left alone;
// ClearLocation removes the location.
type UpdatePetInput struct {
	Name          *string
	Species       *string
	Breed         *string
	Age           *int
	Gender        *models.Gender
	Size          *models.Size
	Color         *string
	Description   *string
	Available     *bool
	ImageURL      *string
	Location      *models.Location
	ClearLocation bool
}

type InterestOutcome string

const (
	InterestAdded            InterestOutcome = "added"
	InterestAlreadyExpressed InterestOutcome = "already_interested"
)

type FavoriteResult struct {
	Favorited bool
	Favorites []uuid.UUID
}

// PetService owns the listing lifecycle. Authorization rules live here so
// every entry point enforces the same ones.
type PetService struct {
	petRepo  *repository.PetRepository
	userRepo *repository.UserRepository
	media    *MediaService
	listings cache.ListingCache
	activity *journal.Journal
}

func NewPetService(
	petRepo *repository.PetRepository,
	userRepo *repository.UserRepository,
	mediaService *MediaService,
	listings cache.ListingCache,
	activity *journal.Journal,
) *PetService {
	if listings == nil {
		listings = cache.NoopCache{}
	}
	return &PetService{
		petRepo:  petRepo,
		userRepo: userRepo,
		media:    mediaService,
		listings: listings,
		activity: activity,
	}
}

// Create validates the owner and fields, uploads the image if one is given,
// and persists the listing. A failed insert removes the uploaded image.
func (s *PetService) Create(ctx context.Context, rawOwnerID string, in CreatePetInput, image *ImageUpload) (*models.Pet, error) {
	start := time.Now()

	ownerID, err := parseID(rawOwnerID, "owner")
	if err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetUserByID(ctx, ownerID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("owner not found")
		}
		return nil, err
	}
	if !owner.Role.CanListPets() {
		logger.Log.Warn("Listing creation denied",
			zap.String("user_id", owner.ID.String()),
			zap.String("role", string(owner.Role)),
		)
		return nil, apperror.Forbidden("only pet owners can create listings")
	}

	pet, err := newPet(owner.ID, in)
	if err != nil {
		return nil, err
	}

	var stored *StoredImage
	if image != nil {
		if s.media == nil {
			return nil, apperror.New(apperror.KindUploadFailed, "image uploads are not configured")
		}
		stored, err = s.media.Ingest(ctx, *image)
		if err != nil {
			return nil, err
		}
		pet.ImageURL = stored.URL
	}

	if err := s.petRepo.CreatePet(ctx, pet); err != nil {
		logger.Log.Error("Failed to create pet",
			zap.String("owner_id", owner.ID.String()),
			zap.Error(err),
		)
		if stored != nil {
			s.media.Discard(ctx, stored)
		}
		return nil, apperror.Internal(err)
	}

	metrics.PetCreated()
	s.record(pet.ID, owner.ID, journal.ActionCreated)
	if stored != nil {
		s.record(pet.ID, owner.ID, journal.ActionImageAttached)
	}
	s.invalidate(ctx)

	logger.Log.Info("Pet created",
		zap.String("pet_id", pet.ID.String()),
		zap.String("owner_id", owner.ID.String()),
		zap.Bool("with_image", stored != nil),
		zap.Duration("duration", time.Since(start)),
	)
	return pet, nil
}

func (s *PetService) Get(ctx context.Context, rawPetID string) (*models.Pet, error) {
	petID, err := parseID(rawPetID, "pet")
	if err != nil {
		return nil, err
	}
	return s.petRepo.GetPetByID(ctx, petID)
}

func (s *PetService) Update(ctx context.Context, actorID uuid.UUID, rawPetID string, in UpdatePetInput) (*models.Pet, error) {
	pet, err := s.ownedPet(ctx, actorID, rawPetID)
	if err != nil {
		return nil, err
	}

	fields, err := updateFields(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.petRepo.UpdatePet(ctx, pet.ID, fields)
	if err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			logger.Log.Error("Failed to update pet", zap.String("pet_id", pet.ID.String()), zap.Error(err))
		}
		return nil, err
	}

	if len(fields) > 0 {
		s.record(pet.ID, actorID, journal.ActionUpdated)
		s.invalidate(ctx)
	}

	logger.Log.Info("Pet updated",
		zap.String("pet_id", pet.ID.String()),
		zap.Int("fields", len(fields)),
	)
	return updated, nil
}

// Delete removes the listing together with its interest and favorite rows.
// The listing's history is pruned down to a deletion record.
func (s *PetService) Delete(ctx context.Context, actorID uuid.UUID, rawPetID string) error {
	pet, err := s.ownedPet(ctx, actorID, rawPetID)
	if err != nil {
		return err
	}

	if err := s.petRepo.DeletePet(ctx, pet.ID); err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			logger.Log.Error("Failed to delete pet", zap.String("pet_id", pet.ID.String()), zap.Error(err))
		}
		return err
	}

	if s.activity != nil {
		if err := s.activity.Prune(pet.ID); err != nil {
			logger.Log.Warn("Failed to prune pet history", zap.String("pet_id", pet.ID.String()), zap.Error(err))
		}
	}
	s.record(pet.ID, actorID, journal.ActionDeleted)
	s.invalidate(ctx)

	logger.Log.Info("Pet deleted",
		zap.String("pet_id", pet.ID.String()),
		zap.String("owner_id", actorID.String()),
	)
	return nil
}

// ExpressInterest is idempotent; a repeat call reports InterestAlreadyExpressed.
func (s *PetService) ExpressInterest(ctx context.Context, rawPetID string, userID uuid.UUID) (InterestOutcome, error) {
	petID, err := parseID(rawPetID, "pet")
	if err != nil {
		return "", err
	}

	added, err := s.petRepo.AddInterested(ctx, petID, userID)
	if err != nil {
		return "", err
	}
	if !added {
		return InterestAlreadyExpressed, nil
	}

	s.record(petID, userID, journal.ActionInterestAdded)
	s.invalidate(ctx)

	logger.Log.Info("Interest expressed",
		zap.String("pet_id", petID.String()),
		zap.String("user_id", userID.String()),
	)
	return InterestAdded, nil
}

// WithdrawInterest reports whether the user had been interested.
func (s *PetService) WithdrawInterest(ctx context.Context, rawPetID string, userID uuid.UUID) (bool, error) {
	petID, err := parseID(rawPetID, "pet")
	if err != nil {
		return false, err
	}

	removed, err := s.petRepo.RemoveInterested(ctx, petID, userID)
	if err != nil {
		return false, err
	}
	if removed {
		s.record(petID, userID, journal.ActionInterestRemoved)
		s.invalidate(ctx)
	}
	return removed, nil
}

// ToggleFavorite flips the user's membership and returns the resulting set.
func (s *PetService) ToggleFavorite(ctx context.Context, rawPetID string, userID uuid.UUID) (*FavoriteResult, error) {
	petID, err := parseID(rawPetID, "pet")
	if err != nil {
		return nil, err
	}

	favorited, set, err := s.petRepo.ToggleFavorite(ctx, petID, userID)
	if err != nil {
		return nil, err
	}

	action := journal.ActionFavoriteRemoved
	if favorited {
		action = journal.ActionFavoriteAdded
	}
	s.record(petID, userID, action)
	s.invalidate(ctx)

	return &FavoriteResult{Favorited: favorited, Favorites: set}, nil
}

// ListAvailable serves from the listing cache when it can. Cache trouble is
// logged and falls through to the database.
func (s *PetService) ListAvailable(ctx context.Context) ([]models.Pet, error) {
	pets, ok, err := s.listings.GetAvailable(ctx)
	if err != nil {
		logger.Log.Warn("Listing cache read failed", zap.Error(err))
	}
	if ok {
		return pets, nil
	}

	// Taken before the query so a write that lands in between makes the
	// snapshot stale
	generation, genErr := s.listings.Generation(ctx)
	if genErr != nil {
		logger.Log.Warn("Listing cache generation read failed", zap.Error(genErr))
	}

	pets, err = s.petRepo.FindAvailable(ctx)
	if err != nil {
		logger.Log.Error("Failed to list available pets", zap.Error(err))
		return nil, err
	}

	if genErr == nil {
		if err := s.listings.SetAvailable(ctx, generation, pets); err != nil {
			logger.Log.Warn("Listing cache write failed", zap.Error(err))
		}
	}
	return pets, nil
}

func (s *PetService) ListByOwner(ctx context.Context, rawOwnerID string) ([]models.Pet, error) {
	ownerID, err := parseID(rawOwnerID, "user")
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.petRepo.FindByOwner(ctx, ownerID)
}

func (s *PetService) ListFavorites(ctx context.Context, rawUserID string) ([]models.Pet, error) {
	userID, err := parseID(rawUserID, "user")
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.petRepo.FindFavoritedBy(ctx, userID)
}

// InterestedParties exposes only username and email of each interested user.
func (s *PetService) InterestedParties(ctx context.Context, rawPetID string) ([]models.Contact, error) {
	petID, err := parseID(rawPetID, "pet")
	if err != nil {
		return nil, err
	}

	users, err := s.petRepo.InterestedUsers(ctx, petID)
	if err != nil {
		return nil, err
	}

	contacts := make([]models.Contact, 0, len(users))
	for i := range users {
		contacts = append(contacts, users[i].Contact())
	}
	return contacts, nil
}

func (s *PetService) OwnerContact(ctx context.Context, rawPetID string) (models.Contact, error) {
	pet, err := s.Get(ctx, rawPetID)
	if err != nil {
		return models.Contact{}, err
	}

	owner, err := s.userRepo.GetUserByID(ctx, pet.OwnerID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return models.Contact{}, apperror.NotFound("owner not found")
		}
		return models.Contact{}, err
	}
	return owner.Contact(), nil
}

// Activity returns the listing's history. Only the owner may read it.
func (s *PetService) Activity(ctx context.Context, actorID uuid.UUID, rawPetID string) ([]journal.Entry, error) {
	pet, err := s.ownedPet(ctx, actorID, rawPetID)
	if err != nil {
		return nil, err
	}
	if s.activity == nil {
		return []journal.Entry{}, nil
	}

	entries, err := s.activity.ForPet(pet.ID)
	if err != nil {
		logger.Log.Error("Failed to read pet history", zap.String("pet_id", pet.ID.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return entries, nil
}

func (s *PetService) ownedPet(ctx context.Context, actorID uuid.UUID, rawPetID string) (*models.Pet, error) {
	pet, err := s.Get(ctx, rawPetID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != actorID {
		logger.Log.Warn("Pet access denied",
			zap.String("pet_id", pet.ID.String()),
			zap.String("actor_id", actorID.String()),
		)
		return nil, apperror.Forbidden("only the owner can manage this listing")
	}
	return pet, nil
}

// record is best effort: the database is the source of truth.
func (s *PetService) record(petID, userID uuid.UUID, action journal.Action) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(petID, userID, action); err != nil {
		logger.Log.Warn("Failed to record pet activity",
			zap.String("pet_id", petID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (s *PetService) invalidate(ctx context.Context) {
	if err := s.listings.Invalidate(ctx); err != nil {
		logger.Log.Warn("Listing cache invalidation failed", zap.Error(err))
	}
}

func newPet(ownerID uuid.UUID, in CreatePetInput) (*models.Pet, error) {
	name := strings.TrimSpace(in.Name)
	species := strings.TrimSpace(in.Species)
	if name == "" || species == "" || in.Age == nil {
		return nil, apperror.Validation("name, species and age are required")
	}
	if err := validateAge(*in.Age); err != nil {
		return nil, err
	}

	gender := in.Gender
	if gender == "" {
		gender = models.GenderUnknown
	}
	if !gender.Valid() {
		return nil, apperror.Validation("gender must be Male, Female or Unknown")
	}

	size := in.Size
	if size == "" {
		size = models.SizeMedium
	}
	if !size.Valid() {
		return nil, apperror.Validation("size must be Small, Medium or Large")
	}

	if err := validateLocation(in.Location); err != nil {
		return nil, err
	}

	available := true
	if in.Available != nil {
		available = *in.Available
	}

	pet := &models.Pet{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Species:     species,
		Breed:       strings.TrimSpace(in.Breed),
		Age:         *in.Age,
		Gender:      gender,
		Size:        size,
		Color:       strings.TrimSpace(in.Color),
		Description: strings.TrimSpace(in.Description),
		Available:   available,
	}
	pet.SetLocation(in.Location)
	return pet, nil
}

func updateFields(in UpdatePetInput) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Species != nil {
		species := strings.TrimSpace(*in.Species)
		if species == "" {
			return nil, apperror.Validation("species cannot be empty")
		}
		fields["species"] = species
	}
	if in.Age != nil {
		if err := validateAge(*in.Age); err != nil {
			return nil, err
		}
		fields["age"] = *in.Age
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return nil, apperror.Validation("gender must be Male, Female or Unknown")
		}
		fields["gender"] = *in.Gender
	}
	if in.Size != nil {
		if !in.Size.Valid() {
			return nil, apperror.Validation("size must be Small, Medium or Large")
		}
		fields["size"] = *in.Size
	}
	if in.Breed != nil {
		fields["breed"] = strings.TrimSpace(*in.Breed)
	}
	if in.Color != nil {
		fields["color"] = strings.TrimSpace(*in.Color)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Available != nil {
		fields["available"] = *in.Available
	}
	if in.ImageURL != nil {
		fields["image_url"] = strings.TrimSpace(*in.ImageURL)
	}

	switch {
	case in.ClearLocation:
		fields["longitude"] = nil
		fields["latitude"] = nil
	case in.Location != nil:
		if err := validateLocation(in.Location); err != nil {
			return nil, err
		}
		fields["longitude"] = in.Location.Longitude
		fields["latitude"] = in.Location.Latitude
	}

	return fields, nil
}

func validateAge(age int) error {
	if age < 0 || age > maxPetAge {
		return apperror.Validation("age must be between 0 and 100")
	}
	return nil
}

func validateLocation(loc *models.Location) error {
	if loc == nil {
		return nil
	}
	if loc.Longitude < -180 || loc.Longitude > 180 || loc.Latitude < -90 || loc.Latitude > 90 {
		return apperror.Validation("location is out of range")
	}
	return nil
}
