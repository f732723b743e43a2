package validators

import "go.mongodb.org/mongo-driver/bson"

var GuestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"property",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"property": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Prime Residency",
					"Prem Kunj",
				},
			},

			"total_stay": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"total_spent": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"New",
					"Regular",
					"VIP",
					"Blacklisted",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
