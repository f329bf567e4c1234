package model

import "time"

// ClassType is a canonical class definition (e.g. Boxing Basics,
// Sparring) that scheduled events reference.
type ClassType struct {
	ID          string    // class_types.id (caller-chosen slug)
	Name        string    // class_types.name
	Level       *string   // class_types.level (nullable)
	Description *string   // class_types.description (nullable)
	UpdatedAt   time.Time // class_types.updated_at
}
