package user

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no user matches a lookup.
var ErrNotFound = errors.New("user not found")

// DefaultWeeklyBudget applies to new accounts.
const DefaultWeeklyBudget = 50

// Profile holds a user's planning preferences.
type Profile struct {
	WeeklyBudget             int      `json:"weeklyBudget"`
	DietaryRestrictions      []string `json:"dietaryRestrictions"`
	OtherDietaryRestrictions string   `json:"otherDietaryRestrictions"`
}

// DefaultProfile is the profile every account starts with.
func DefaultProfile() Profile {
	return Profile{
		WeeklyBudget:        DefaultWeeklyBudget,
		DietaryRestrictions: []string{},
	}
}

// User is an account. HashedPassword never leaves the service.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Profile        Profile   `json:"profile"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize lower-cases and trims dietary restrictions, dropping blanks and duplicates.
func (p Profile) Normalize() Profile {
	seen := make(map[string]bool, len(p.DietaryRestrictions))
	restrictions := make([]string, 0, len(p.DietaryRestrictions))
	for _, r := range p.DietaryRestrictions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		restrictions = append(restrictions, r)
	}
	p.DietaryRestrictions = restrictions
	p.OtherDietaryRestrictions = strings.TrimSpace(p.OtherDietaryRestrictions)
	return p
}
