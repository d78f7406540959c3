// Package firestore lists the composite indexes the repositories' queries
// need. Firestore builds single-field indexes on its own.
package firestore

import (
	"encoding/json"
	"io"

	bookingsrepo "blackyoga/internal/bookings/repository"
	pointsrepo "blackyoga/internal/points/repository"
)

const (
	Ascending  = "ASCENDING"
	Descending = "DESCENDING"
)

type IndexField struct {
	FieldPath string `json:"fieldPath"`
	Order     string `json:"order"`
}

type Index struct {
	CollectionGroup string       `json:"collectionGroup"`
	QueryScope      string       `json:"queryScope"`
	Fields          []IndexField `json:"fields"`
}

// Indexes mirrors the Where/OrderBy combinations used by the repositories.
var Indexes = []Index{
	{
		CollectionGroup: bookingsrepo.CollectionName,
		QueryScope:      "COLLECTION",
		Fields: []IndexField{
			{FieldPath: "userId", Order: Ascending},
			{FieldPath: "createdAt", Order: Descending},
		},
	},
	{
		CollectionGroup: bookingsrepo.CollectionName,
		QueryScope:      "COLLECTION",
		Fields: []IndexField{
			{FieldPath: "classId", Order: Ascending},
			{FieldPath: "status", Order: Ascending},
			{FieldPath: "createdAt", Order: Ascending},
		},
	},
	{
		CollectionGroup: bookingsrepo.CollectionName,
		QueryScope:      "COLLECTION",
		Fields: []IndexField{
			{FieldPath: "classId", Order: Ascending},
			{FieldPath: "createdAt", Order: Ascending},
		},
	},
	{
		CollectionGroup: pointsrepo.CollectionName,
		QueryScope:      "COLLECTION",
		Fields: []IndexField{
			{FieldPath: "userId", Order: Ascending},
			{FieldPath: "createdAt", Order: Descending},
		},
	},
}

// WriteIndexFile writes the indexes in the firestore.indexes.json format
// accepted by `firebase deploy --only firestore:indexes`.
func WriteIndexFile(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Indexes        []Index `json:"indexes"`
		FieldOverrides []any   `json:"fieldOverrides"`
	}{
		Indexes:        Indexes,
		FieldOverrides: []any{},
	})
}
