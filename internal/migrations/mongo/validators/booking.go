package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"class_id",
			"status",
			"points_charged",
			"class_name",
			"class_starts_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"user_id":  nonEmptyString(64),
			"class_id": nonEmptyString(64),

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
				},
			},

			"points_charged": nonNegativeInt(),

			"class_name": nonEmptyString(100),

			"class_starts_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"cancelled_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingClaimValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"class_id",
			"user_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"booking_id": nonEmptyString(64),
			"class_id":   nonEmptyString(64),
			"user_id":    nonEmptyString(64),

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
