package models

import "time"

// BracketType distinguishes the round structures a tournament can own.
type BracketType string

const (
	BracketSingle  BracketType = "single"
	BracketWinners BracketType = "winners"
	BracketLosers  BracketType = "losers"
	BracketGroup   BracketType = "group"
)

type Bracket struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Type         BracketType `json:"type" db:"type"`
	GroupNumber  *int        `json:"group_number,omitempty" db:"group_number"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
)

type Match struct {
	ID           int    `json:"id" db:"id"`
	BracketID    int    `json:"bracket_id" db:"bracket_id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	Round        int    `json:"round" db:"round"`
	OrderInRound int    `json:"order_in_round" db:"order_in_round"`
	BracketUID   string `json:"bracket_uid" db:"bracket_uid"`

	Participant1ID *int `json:"participant1_id,omitempty" db:"participant1_id"`
	Participant2ID *int `json:"participant2_id,omitempty" db:"participant2_id"`

	Score1              *int        `json:"score1,omitempty" db:"score1"`
	Score2              *int        `json:"score2,omitempty" db:"score2"`
	Status              MatchStatus `json:"status" db:"status"`
	WinnerParticipantID *int        `json:"winner_participant_id,omitempty" db:"winner_participant_id"`

	// Winner advancement: the winner occupies NextMatchSlot (1 or 2) of
	// NextMatchID. In double elimination the loser is routed the same way
	// through LoserNextMatchID/LoserNextSlot.
	NextMatchID      *int `json:"next_match_id,omitempty" db:"next_match_id"`
	NextMatchSlot    *int `json:"next_match_slot,omitempty" db:"next_match_slot"`
	LoserNextMatchID *int `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextSlot    *int `json:"loser_next_slot,omitempty" db:"loser_next_slot"`

	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
