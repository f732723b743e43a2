package model

import "time"

const (
	FoodCategoryBreakfast = "Breakfast"
	FoodCategoryLunch     = "Lunch"
	FoodCategoryDinner    = "Dinner"
	FoodCategorySnacks    = "Snacks"
	FoodCategoryBeverages = "Beverages"
	FoodCategoryOther     = "Other"
)

const (
	OrderPending   = "Pending"
	OrderAccepted  = "Accepted"
	OrderPreparing = "Preparing"
	OrderDelivered = "Delivered"
	OrderCancelled = "Cancelled"
)

type FoodItem struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Category    string    `json:"category" bson:"category" validate:"required,oneof=Breakfast Lunch Dinner Snacks Beverages Other"`
	Price       float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Stock       int       `json:"stock" bson:"stock" validate:"min=0"`
	Unit        string    `json:"unit" bson:"unit" validate:"omitempty,max=20"`
	Property    Property  `json:"property" bson:"property" validate:"required"`
	IsAvailable bool      `json:"is_available" bson:"is_available"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type FoodItemUpdate struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Category    string   `json:"category,omitempty" validate:"omitempty,oneof=Breakfast Lunch Dinner Snacks Beverages Other"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,min=0"`
	Unit        string   `json:"unit,omitempty" validate:"omitempty,max=20"`
	IsAvailable *bool    `json:"is_available,omitempty"`
	Description string   `json:"description,omitempty"`
}

// FoodOrderItem is one requested line of a food order. Price and Amount are
// filled from the food item catalog at order time, never taken from the
// caller.
type FoodOrderItem struct {
	FoodItemID string  `json:"food_item_id" bson:"food_item_id" validate:"required,mongodb"`
	Name       string  `json:"name" bson:"name"`
	Quantity   int     `json:"quantity" bson:"quantity" validate:"required,min=1"`
	Price      float64 `json:"price" bson:"price"`
	Amount     float64 `json:"amount" bson:"amount"`
}

type FoodOrder struct {
	ID          string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookingID   string          `json:"booking_id" bson:"booking_id" validate:"required,mongodb"`
	RoomNumber  string          `json:"room_number" bson:"room_number"`
	GuestName   string          `json:"guest_name" bson:"guest_name"`
	Property    Property        `json:"property" bson:"property" validate:"required"`
	Items       []FoodOrderItem `json:"items" bson:"items" validate:"required,min=1,dive"`
	TotalAmount float64         `json:"total_amount" bson:"total_amount"`
	Status      string          `json:"status" bson:"status" validate:"omitempty,oneof=Pending Accepted Preparing Delivered Cancelled"`
	OrderDate   time.Time       `json:"order_date" bson:"order_date"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
}
