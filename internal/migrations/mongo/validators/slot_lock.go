package validators

import "go.mongodb.org/mongo-driver/bson"

// Slot lock IDs are caller-chosen strings (booking_slot_..., payment_...,
// food_stock_...), so _id is a string here, not an ObjectID.
var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"expires_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
