package handler

import (
	"maps"

	"github.com/msomdec/result-processing/internal/domain"
)

// InsertResponse acknowledges a stored record.
type InsertResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// UpdateResponse acknowledges an update. Upserts never happen, so
// UpsertedID is always null.
type UpdateResponse struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedID    *string `json:"upsertedId"`
	UpsertedCount int64   `json:"upsertedCount"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

func toInsertResponse(r domain.InsertResult) InsertResponse {
	return InsertResponse{Acknowledged: true, InsertedID: r.InsertedID}
}

func toDeleteResponse(r domain.DeleteResult) DeleteResponse {
	return DeleteResponse{Acknowledged: true, DeletedCount: r.DeletedCount}
}

func toUpdateResponse(r domain.UpdateResult) UpdateResponse {
	return UpdateResponse{
		Acknowledged:  true,
		MatchedCount:  r.MatchedCount,
		ModifiedCount: r.ModifiedCount,
	}
}

// toUserDocument flattens a user into the document shape clients expect:
// profile fields alongside _id, email and role.
func toUserDocument(u domain.User) map[string]any {
	doc := make(map[string]any, len(u.Profile)+3)
	maps.Copy(doc, u.Profile)
	doc["_id"] = u.ID
	doc["email"] = u.Email
	doc["role"] = string(u.Role)
	return doc
}

func toUserDocuments(users []domain.User) []map[string]any {
	docs := make([]map[string]any, len(users))
	for i, u := range users {
		docs[i] = toUserDocument(u)
	}
	return docs
}

func toResultDocument(r domain.Result) map[string]any {
	doc := make(map[string]any, len(r.Document)+1)
	maps.Copy(doc, r.Document)
	doc["_id"] = r.ID
	return doc
}

func toResultDocuments(results []domain.Result) []map[string]any {
	docs := make([]map[string]any, len(results))
	for i, r := range results {
		docs[i] = toResultDocument(r)
	}
	return docs
}
