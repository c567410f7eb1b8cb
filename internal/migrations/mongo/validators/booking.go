package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"name",
			"email",
			"seats",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{1,14}$`,
			},

			"seats": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  1000,
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"paid",
					"cancelled",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
