package models

import "time"

// TournamentStatus mirrors the status ENUM in the database.
type TournamentStatus string

const (
	StatusDraft        TournamentStatus = "draft"
	StatusRegistration TournamentStatus = "registration"
	StatusCheckIn      TournamentStatus = "check_in"
	StatusInProgress   TournamentStatus = "in_progress"
	StatusCompleted    TournamentStatus = "completed"
	StatusCancelled    TournamentStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elim"
	FormatDoubleElimination TournamentFormat = "double_elim"
	FormatSwiss             TournamentFormat = "swiss"
	FormatRoundRobin        TournamentFormat = "round_robin"
	FormatGroupStage        TournamentFormat = "group_stage"
)

// MinimumParticipants returns the smallest field a format can start with.
func (f TournamentFormat) MinimumParticipants() int {
	if f == FormatSingleElimination {
		return 1
	}
	return 2
}

type SeedingMethod string

const (
	SeedingRandom            SeedingMethod = "random"
	SeedingSkill             SeedingMethod = "skill"
	SeedingRegistrationOrder SeedingMethod = "registration_order"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Game        string           `json:"game" db:"game"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	Format      TournamentFormat `json:"format" db:"format"`
	Status      TournamentStatus `json:"status" db:"status"`
	TeamBased   bool             `json:"team_based" db:"team_based"`
	Seeding     SeedingMethod    `json:"seeding" db:"seeding"`

	MaxParticipants int `json:"max_participants" db:"max_participants"`
	MinParticipants int `json:"min_participants" db:"min_participants"`

	RegistrationStart time.Time `json:"registration_start" db:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end" db:"registration_end"`
	CheckInStart      time.Time `json:"check_in_start" db:"check_in_start"`
	StartTime         time.Time `json:"start_time" db:"start_time"`
	EstimatedEnd      time.Time `json:"estimated_end" db:"estimated_end"`

	// Denormalized counters, kept in step with the participant rows
	// inside the same transaction that mutates them.
	TotalRegistered int `json:"total_registered" db:"total_registered"`
	TotalCheckedIn  int `json:"total_checked_in" db:"total_checked_in"`

	WinnerParticipantID *int      `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner_url,omitempty" db:"-"`

	Organizer    *User         `json:"organizer,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Brackets     []Bracket     `json:"brackets,omitempty" db:"-"`
}
