package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"line_id",
			"display_name",
			"role",
			"points",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"line_id":      nonEmptyString(64),
			"display_name": nonEmptyString(100),

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"member",
					"admin",
				},
			},

			"points": nonNegativeInt(),

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^(\+[1-9]\d{1,14})?$`,
			},

			"membership_expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var PointsTransactionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"type",
			"points",
			"balance_after",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"user_id": nonEmptyString(64),

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"added",
					"used",
				},
			},

			"points": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"balance_after": nonNegativeInt(),

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
