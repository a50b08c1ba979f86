package brackets

import (
	"context"
	"fmt"
	"math"

	"github.com/eytgaming/tournament-platform/models"
)

// GeneratedMatch is the in-memory output of a bracket generator. The UID is
// local to one generation run and is what links matches together; the
// service layer resolves UIDs to database IDs when persisting.
type GeneratedMatch struct {
	UID          string
	BracketType  models.BracketType
	GroupNumber  *int
	Round        int
	OrderInRound int

	Participant1ID *int
	Participant2ID *int

	// WinnerSourceNUID: slot N is filled by the winner of that match.
	// LoserSourceNUID: slot N is filled by the loser (double elimination).
	WinnerSource1UID *string
	WinnerSource2UID *string
	LoserSource1UID  *string
	LoserSource2UID  *string

	// Byes are generator bookkeeping only; they are never persisted as
	// playable matches.
	IsBye            bool
	ByeParticipantID *int
}

type GenerateParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*GeneratedMatch, error)
	Name() string
}

// InsufficientParticipantsError is returned when a bracket is requested
// below the format's minimum field size.
type InsufficientParticipantsError struct {
	Format  models.TournamentFormat
	Minimum int
	Got     int
}

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("%s bracket requires at least %d participants, got %d",
		e.Format, e.Minimum, e.Got)
}

// ForFormat selects the generator for a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatGroupStage:
		return NewGroupStageGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament format %q", format)
	}
}

func validateFieldSize(format models.TournamentFormat, got int) error {
	min := format.MinimumParticipants()
	if got < min {
		return &InsufficientParticipantsError{Format: format, Minimum: min, Got: got}
	}
	return nil
}

// bracketSize returns the smallest power of two >= count. Degenerate counts
// short-circuit to the two-slot minimum so the logarithm never sees zero.
func bracketSize(count int) int {
	if count <= 1 {
		return 2
	}
	return 1 << uint(math.Ceil(math.Log2(float64(count))))
}

func roundsForSize(size int) int {
	return int(math.Log2(float64(size)))
}

// seedOrder returns the slot order that places seeds into the classic
// 1-vs-last layout: consecutive pairs are the round-1 matchups, and the top
// seeds cannot meet before the final.
func seedOrder(size int) []int {
	order := []int{0}
	for len(order) < size {
		doubled := make([]int, 0, len(order)*2)
		count := len(order) * 2
		for _, s := range order {
			doubled = append(doubled, s, count-1-s)
		}
		order = doubled
	}
	return order
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
