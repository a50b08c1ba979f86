package models

import (
	"fmt"
	"time"
)

type ParticipantStatus string

const (
	ParticipantPending      ParticipantStatus = "pending"
	ParticipantConfirmed    ParticipantStatus = "confirmed"
	ParticipantWithdrawn    ParticipantStatus = "withdrawn"
	ParticipantDisqualified ParticipantStatus = "disqualified"
)

// Participant is a single entrant in a tournament. Exactly one of UserID or
// TeamID is set, depending on Tournament.TeamBased.
type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	UserID       *int              `json:"user_id,omitempty" db:"user_id"`
	TeamID       *int              `json:"team_id,omitempty" db:"team_id"`
	Status       ParticipantStatus `json:"status" db:"status"`
	Seed         int               `json:"seed" db:"seed"`
	CheckedIn    bool              `json:"checked_in" db:"checked_in"`
	CheckInTime  *time.Time        `json:"check_in_time,omitempty" db:"check_in_time"`
	RegisteredAt time.Time         `json:"registered_at" db:"registered_at"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}

// DisplayName is always derived from the current user/team relation, never
// stored. Team name for team entries, otherwise the user's display name.
func (p *Participant) DisplayName() string {
	if p == nil {
		return "Unknown Participant"
	}
	if p.Team != nil && p.Team.Name != "" {
		return p.Team.Name
	}
	if p.User != nil {
		if name := p.User.DisplayName(); name != "" {
			return name
		}
	}
	if p.ID != 0 {
		return fmt.Sprintf("Participant %d", p.ID)
	}
	return "Unnamed Participant"
}

// Rating exposes the seeding rating for skill-based ordering.
func (p *Participant) Rating() int {
	if p == nil {
		return 0
	}
	if p.Team != nil {
		return p.Team.Rating
	}
	if p.User != nil {
		return p.User.Rating
	}
	return 0
}
