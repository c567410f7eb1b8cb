package validators

import "go.mongodb.org/mongo-driver/bson"

var EventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"slug",
			"start_time",
			"status",
			"booking_seq",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"slug": bson.M{
				"bsonType":  "string",
				"maxLength": 250,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 10000,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 300,
			},

			// null means unlimited
			"capacity": bson.M{
				"bsonType": []string{"int", "long", "null"},
				"minimum":  0,
			},

			"price": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"draft",
					"published",
					"cancelled",
				},
			},

			"booking_seq": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
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
