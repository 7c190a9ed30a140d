package domain

// InsertResult reports the identifier assigned to a newly stored record.
type InsertResult struct {
	InsertedID string
}

// DeleteResult reports how many records a delete removed. Zero means no
// record matched.
type DeleteResult struct {
	DeletedCount int64
}

// UpdateResult separates "no record matched" from "matched but already
// held the requested values".
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}
