package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnknown
}

type Size string

const (
	SizeSmall  Size = "Small"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

func (s Size) Valid() bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

// Location is either fully present or absent; it is never half set.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type Pet struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Species     string    `gorm:"type:varchar(50);not null"`
	Breed       string    `gorm:"type:varchar(100)"`
	Age         int       `gorm:"not null"`
	Gender      Gender    `gorm:"type:varchar(10);not null"`
	Size        Size      `gorm:"type:varchar(10);not null"`
	Color       string    `gorm:"type:varchar(50)"`
	Description string    `gorm:"type:text"`
	Available   bool      `gorm:"not null;index"` // no DB default: gorm would swap an explicit false for it
	ImageURL    string    `gorm:"type:text"`
	Longitude   *float64
	Latitude    *float64

	Interests []PetInterest `gorm:"foreignKey:PetID"`
	Favorites []PetFavorite `gorm:"foreignKey:PetID"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (p *Pet) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PetInterest records that a user wants to adopt a pet. The composite key makes
// the interested set a real set.
type PetInterest struct {
	PetID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (PetInterest) TableName() string {
	return "pet_interests"
}

// PetFavorite is a user's bookmark on a pet, independent of interest.
type PetFavorite struct {
	PetID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

func (PetFavorite) TableName() string {
	return "pet_favorites"
}

func (p *Pet) Location() *Location {
	if p.Longitude == nil || p.Latitude == nil {
		return nil
	}
	return &Location{Longitude: *p.Longitude, Latitude: *p.Latitude}
}

func (p *Pet) SetLocation(loc *Location) {
	if loc == nil {
		p.Longitude, p.Latitude = nil, nil
		return
	}
	lng, lat := loc.Longitude, loc.Latitude
	p.Longitude, p.Latitude = &lng, &lat
}

func (p *Pet) InterestedAdopterIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Interests))
	for _, in := range p.Interests {
		ids = append(ids, in.UserID)
	}
	return sortIDs(ids)
}

func (p *Pet) FavoriteIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Favorites))
	for _, fav := range p.Favorites {
		ids = append(ids, fav.UserID)
	}
	return sortIDs(ids)
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// petJSON is the wire shape of a listing.
type petJSON struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Species            string      `json:"species"`
	Breed              string      `json:"breed,omitempty"`
	Age                int         `json:"age"`
	Gender             Gender      `json:"gender"`
	Size               Size        `json:"size"`
	Color              string      `json:"color,omitempty"`
	Description        string      `json:"description,omitempty"`
	Available          bool        `json:"available"`
	ImageURL           string      `json:"imageUrl,omitempty"`
	Owner              uuid.UUID   `json:"owner"`
	OwnerUsername      string      `json:"ownerUsername,omitempty"`
	Location           *Location   `json:"location"`
	InterestedAdopters []uuid.UUID `json:"interestedAdopters"`
	Favorites          []uuid.UUID `json:"favorites"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

func (p Pet) MarshalJSON() ([]byte, error) {
	out := petJSON{
		ID:                 p.ID,
		Name:               p.Name,
		Species:            p.Species,
		Breed:              p.Breed,
		Age:                p.Age,
		Gender:             p.Gender,
		Size:               p.Size,
		Color:              p.Color,
		Description:        p.Description,
		Available:          p.Available,
		ImageURL:           p.ImageURL,
		Owner:              p.OwnerID,
		Location:           p.Location(),
		InterestedAdopters: p.InterestedAdopterIDs(),
		Favorites:          p.FavoriteIDs(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Owner != nil {
		out.OwnerUsername = p.Owner.Username
	}
	return json.Marshal(out)
}

func (p *Pet) UnmarshalJSON(data []byte) error {
	var in petJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Pet{
		ID:          in.ID,
		OwnerID:     in.Owner,
		Name:        in.Name,
		Species:     in.Species,
		Breed:       in.Breed,
		Age:         in.Age,
		Gender:      in.Gender,
		Size:        in.Size,
		Color:       in.Color,
		Description: in.Description,
		Available:   in.Available,
		ImageURL:    in.ImageURL,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	p.SetLocation(in.Location)
	if in.OwnerUsername != "" {
		p.Owner = &User{ID: in.Owner, Username: in.OwnerUsername}
	}
	for _, id := range in.InterestedAdopters {
		p.Interests = append(p.Interests, PetInterest{PetID: in.ID, UserID: id})
	}
	for _, id := range in.Favorites {
		p.Favorites = append(p.Favorites, PetFavorite{PetID: in.ID, UserID: id})
	}
	return nil
}
