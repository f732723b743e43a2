package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"guest",
			"email",
			"phone",
			"property",
			"room_number",
			"check_in",
			"check_out",
			"amount",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"guest": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"phone": bson.M{
				"bsonType":  "string",
				"minLength": 7,
				"maxLength": 20,
			},

			"property": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Prime Residency",
					"Prem Kunj",
				},
			},

			"room_number": bson.M{
				"bsonType": "string",
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"advance": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"balance": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"food_orders": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
				},
			},

			"extra_charges": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"Partial",
					"Paid",
					"Cancelled",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"Confirmed",
					"Checked-in",
					"Checked-out",
					"Cancelled",
				},
			},

			"source": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Website",
					"Dashboard",
					"Direct",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
