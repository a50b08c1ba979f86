package models

import "time"

type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Tag         *string   `json:"tag,omitempty" db:"tag"`
	CaptainID   int       `json:"captain_id" db:"captain_id"`
	CoCaptainID *int      `json:"co_captain_id,omitempty" db:"co_captain_id"`
	Rating      int       `json:"rating" db:"rating"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Captain *User  `json:"captain,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

// IsLeader reports whether the user captains or co-captains the team.
func (t *Team) IsLeader(userID int) bool {
	if t == nil {
		return false
	}
	if t.CaptainID == userID {
		return true
	}
	return t.CoCaptainID != nil && *t.CoCaptainID == userID
}
