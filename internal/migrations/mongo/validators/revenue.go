package validators

import "go.mongodb.org/mongo-driver/bson"

var RevenueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"date",
			"source",
			"amount",
			"property",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"source": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Room Booking",
					"Service",
					"Food & Beverage",
					"Event",
					"Other",
				},
			},

			"booking_source": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Website",
					"Dashboard",
					"Direct",
				},
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"payment_method": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Cash",
					"Card",
					"UPI",
					"Bank Transfer",
					"Online",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Received",
					"Pending",
					"Refunded",
				},
			},

			"property": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Prime Residency",
					"Prem Kunj",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
