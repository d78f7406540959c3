package validators

import "go.mongodb.org/mongo-driver/bson"

var ClassValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"teacher",
			"date",
			"start_time",
			"end_time",
			"capacity",
			"booked_count",
			"is_full",
			"starts_at",
			"ends_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"name":    nonEmptyString(100),
			"teacher": nonEmptyString(100),

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"duration_minutes": nonNegativeInt(),

			"capacity": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  200,
			},

			"booked_count": nonNegativeInt(),

			"is_full": bson.M{
				"bsonType": "bool",
			},

			"starts_at": bson.M{
				"bsonType": "date",
			},

			"ends_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
