// Package users reads profiles from the registry the main application owns.
// This service never creates or updates users; a sender with no profile is
// served through the anonymous flow.
package users

import "time"

// User is the read-only profile shape exposed by the upstream registry.
type User struct {
	ID          string
	PhoneNumber string
	FirstName   string
	LastName    string
	DateOfBirth string
	Gender      string
	DietType    string
	Allergies   []string
	Goals       []string
	HeightCm    float64
	WeightKg    float64
	CreatedAt   time.Time
}

// DisplayName returns the user's name for prompt embedding.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return "User"
	}
}
