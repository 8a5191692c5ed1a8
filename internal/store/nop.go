package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/amishk599/resumeforge/internal/model"
)

// NopStore is a no-op store used in dry-run mode. Save hands back a fresh id
// but nothing is kept, so every lookup reports the record as absent.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Save(_ context.Context, fields model.Fields) (string, error) {
	if len(fields) == 0 {
		return "", &model.ValidationError{Op: "save", Reason: "no fields given"}
	}
	return uuid.NewString(), nil
}

func (s *NopStore) Retrieve(_ context.Context, id string) (model.Record, error) {
	return model.Record{}, &model.NotFoundError{Op: "retrieve", ID: id}
}

func (s *NopStore) List(_ context.Context, _ model.Fields) ([]model.Record, error) {
	return nil, nil
}

func (s *NopStore) Update(_ context.Context, id string, _ model.Fields) error {
	return &model.NotFoundError{Op: "update", ID: id}
}

func (s *NopStore) Delete(_ context.Context, id string) error {
	return &model.NotFoundError{Op: "delete", ID: id}
}
