// Package models defines the core data structures for contacts and categories.
package models

import (
	"slices"
	"time"
)

// AllCategories is the category id that disables category filtering.
const AllCategories int64 = 0

// Contact is one person entry in a user's directory.
type Contact struct {
	// ID is assigned by the database and never changes.
	ID int64 `json:"id"`
	// OwnerID is the login of the user the contact belongs to.
	OwnerID   string `json:"ownerId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	// BirthDate keeps the calendar date as entered, tagged UTC.
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Address1  string     `json:"address1"`
	Address2  string     `json:"address2,omitempty"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	ZipCode   string     `json:"zipCode"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	ImageData []byte     `json:"imageData,omitempty"`
	ImageType string     `json:"imageType,omitempty"`
	// Created is set once, in UTC, when the contact is stored.
	Created time.Time `json:"created"`
	// Version is the optimistic-concurrency token, bumped on every edit.
	Version int64 `json:"version"`
	// Categories is only populated for single-contact reads.
	Categories []Category `json:"categories,omitempty"`
}

// FullName joins first and last name with a single space.
// Name search matches against this value.
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Category is a user-defined label for grouping contacts.
type Category struct {
	ID      int64  `json:"id"`
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
}

// States is the closed set of accepted state codes.
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// IsValidState reports whether s is one of States.
func IsValidState(s string) bool {
	return slices.Contains(States, s)
}
