package model

import (
	"math"
	"time"
)

const (
	RoomAvailable   = "Available"
	RoomBooked      = "Booked"
	RoomMaintenance = "Maintenance"
)

const (
	RoomCategoryRoom    = "Room"
	RoomCategoryBanquet = "Banquet"
	RoomCategoryLawn    = "Lawn"
)

// Room identity is (RoomNumber, Property), not RoomNumber alone; the same
// number exists in both properties. Status is a cached projection of the
// booking ledger — only Maintenance is set by a human and survives the
// availability sweep.
type Room struct {
	ID         string   `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name       string   `json:"name" bson:"name" validate:"required,min=2,max=100"`
	RoomNumber string   `json:"room_number" bson:"room_number" validate:"required,min=1,max=20"`
	Type       string   `json:"type" bson:"type" validate:"required,min=2,max=50"`
	Category   string   `json:"category" bson:"category" validate:"required,oneof=Room Banquet Lawn"`
	Property   Property `json:"property" bson:"property" validate:"required"`

	Price              float64 `json:"price" bson:"price" validate:"required,gt=0"`
	Discount           float64 `json:"discount,omitempty" bson:"discount,omitempty" validate:"omitempty,min=0,max=100"`
	ExtraBedPrice      float64 `json:"extra_bed_price,omitempty" bson:"extra_bed_price,omitempty" validate:"omitempty,min=0"`
	TaxGST             float64 `json:"tax_gst,omitempty" bson:"tax_gst,omitempty" validate:"omitempty,min=0,max=100"`
	EnableExtraCharges bool    `json:"enable_extra_charges" bson:"enable_extra_charges"`
	TotalPrice         float64 `json:"total_price" bson:"total_price"`

	Status      string   `json:"status" bson:"status" validate:"required,oneof=Available Booked Maintenance"`
	Amenities   []string `json:"amenities,omitempty" bson:"amenities,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	MaxAdults   int      `json:"max_adults,omitempty" bson:"max_adults,omitempty" validate:"omitempty,min=1"`
	MaxChildren int      `json:"max_children,omitempty" bson:"max_children,omitempty" validate:"omitempty,min=0"`
	Featured    bool     `json:"featured" bson:"featured"`
	Visibility  bool     `json:"visibility" bson:"visibility"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// ComputeTotalPrice derives the advertised nightly rate. With extra charges
// enabled: discount off the base price, GST on the discounted price, extra
// bed added flat, rounded to the nearest rupee. Otherwise the base price
// stands as-is.
func (r *Room) ComputeTotalPrice() float64 {
	if !r.EnableExtraCharges {
		return r.Price
	}
	discounted := r.Price - (r.Price*r.Discount)/100
	tax := (discounted * r.TaxGST) / 100
	return math.Round(discounted + r.ExtraBedPrice + tax)
}

type RoomUpdate struct {
	Name               string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Type               string   `json:"type,omitempty" validate:"omitempty,min=2,max=50"`
	Category           string   `json:"category,omitempty" validate:"omitempty,oneof=Room Banquet Lawn"`
	Price              *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Discount           *float64 `json:"discount,omitempty" validate:"omitempty,min=0,max=100"`
	ExtraBedPrice      *float64 `json:"extra_bed_price,omitempty" validate:"omitempty,min=0"`
	TaxGST             *float64 `json:"tax_gst,omitempty" validate:"omitempty,min=0,max=100"`
	EnableExtraCharges *bool    `json:"enable_extra_charges,omitempty"`
	Status             string   `json:"status,omitempty" validate:"omitempty,oneof=Available Booked Maintenance"`
	Amenities          []string `json:"amenities,omitempty"`
	Description        string   `json:"description,omitempty"`
	MaxAdults          *int     `json:"max_adults,omitempty" validate:"omitempty,min=1"`
	MaxChildren        *int     `json:"max_children,omitempty" validate:"omitempty,min=0"`
	Featured           *bool    `json:"featured,omitempty"`
	Visibility         *bool    `json:"visibility,omitempty"`
}
