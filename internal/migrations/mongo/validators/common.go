package validators

import "go.mongodb.org/mongo-driver/bson"

// Go ints are stored as int32 when they fit and int64 otherwise.
var integer = bson.A{"int", "long"}

func nonEmptyString(maxLength int) bson.M {
	return bson.M{
		"bsonType":  "string",
		"minLength": 1,
		"maxLength": maxLength,
	}
}

func nonNegativeInt() bson.M {
	return bson.M{
		"bsonType": integer,
		"minimum":  0,
	}
}
