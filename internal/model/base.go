package model

import "time"

type (
	// A Model is a storable entity.
	Model interface {
		// GetID returns the unique identifier of the model.
		GetID() string
		// SetID defines the unique identifier of the model.
		SetID(id string)
		// SetCreatedAt defines the creation time of the model.
		SetCreatedAt(t time.Time)
		// SetUpdatedAt defines the last modification time of the model.
		SetUpdatedAt(t time.Time)
	}

	// Base holds the attributes shared by all the models.
	Base struct {
		ID        string     `json:"id"         storm:"id"`
		CreatedAt *time.Time `json:"created_at" storm:"index"`
		UpdatedAt *time.Time `json:"updated_at" storm:"index"`
	}
)

// GetID returns the unique identifier of the model.
func (m *Base) GetID() string {
	return m.ID
}

// SetID defines the unique identifier of the model.
func (m *Base) SetID(id string) {
	m.ID = id
}

// SetCreatedAt defines the creation time of the model.
func (m *Base) SetCreatedAt(t time.Time) {
	m.CreatedAt = &t
}

// SetUpdatedAt defines the last modification time of the model.
func (m *Base) SetUpdatedAt(t time.Time) {
	m.UpdatedAt = &t
}
