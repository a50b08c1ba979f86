package brackets

import (
	"context"
	"fmt"

	"github.com/eytgaming/tournament-platform/models"
)

// elimSlot is one position in an elimination round: a known participant, the
// future winner of an earlier match, or an empty bye slot.
type elimSlot struct {
	participantID *int
	sourceUID     *string
	bye           bool
}

type eliminationBracket struct {
	matches  []*GeneratedMatch
	rounds   [][]*GeneratedMatch // playable matches per round, index 0 = round 1
	finalUID string
	size     int
}

// buildElimination lays out a full single-elimination structure over the
// seeded participant list. Input order is seed order. Byes fill the unused
// slots of the power-of-two bracket and are resolved at build time: the bye
// participant is placed directly into the following round.
func buildElimination(participants []*models.Participant, btype models.BracketType, uidPrefix string) *eliminationBracket {
	n := len(participants)
	size := bracketSize(n)
	totalRounds := roundsForSize(size)

	slots := make([]elimSlot, size)
	for i, seedPos := range seedOrder(size) {
		if seedPos < n {
			slots[i] = elimSlot{participantID: intPtr(participants[seedPos].ID)}
		} else {
			slots[i] = elimSlot{bye: true}
		}
	}

	b := &eliminationBracket{size: size}
	byeCount := 0

	for r := 1; r <= totalRounds; r++ {
		next := make([]elimSlot, 0, len(slots)/2)
		roundMatches := make([]*GeneratedMatch, 0, len(slots)/2)
		order := 0

		for i := 0; i < len(slots); i += 2 {
			s1, s2 := slots[i], slots[i+1]

			switch {
			case s1.bye && s2.bye:
				next = append(next, elimSlot{bye: true})

			case s2.bye && s1.participantID != nil:
				byeCount++
				b.matches = append(b.matches, &GeneratedMatch{
					UID:              fmt.Sprintf("%sR%dB%d", uidPrefix, r, byeCount),
					BracketType:      btype,
					Round:            r,
					IsBye:            true,
					ByeParticipantID: s1.participantID,
				})
				next = append(next, elimSlot{participantID: s1.participantID})

			case s1.bye && s2.participantID != nil:
				byeCount++
				b.matches = append(b.matches, &GeneratedMatch{
					UID:              fmt.Sprintf("%sR%dB%d", uidPrefix, r, byeCount),
					BracketType:      btype,
					Round:            r,
					IsBye:            true,
					ByeParticipantID: s2.participantID,
				})
				next = append(next, elimSlot{participantID: s2.participantID})

			case s1.bye || s2.bye:
				// A source slot paired against a propagated bye: the
				// source side advances without playing.
				if s1.bye {
					next = append(next, s2)
				} else {
					next = append(next, s1)
				}

			default:
				order++
				uid := fmt.Sprintf("%sR%dM%d", uidPrefix, r, order)
				gm := &GeneratedMatch{
					UID:              uid,
					BracketType:      btype,
					Round:            r,
					OrderInRound:     order,
					Participant1ID:   s1.participantID,
					WinnerSource1UID: s1.sourceUID,
					Participant2ID:   s2.participantID,
					WinnerSource2UID: s2.sourceUID,
				}
				b.matches = append(b.matches, gm)
				roundMatches = append(roundMatches, gm)
				next = append(next, elimSlot{sourceUID: strPtr(uid)})
			}
		}

		b.rounds = append(b.rounds, roundMatches)
		slots = next
	}

	if len(slots) == 1 && slots[0].sourceUID != nil {
		b.finalUID = *slots[0].sourceUID
	}
	return b
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate produces the knockout structure: N-1 playable matches terminating
// in a single final, with byes resolved into round 2 up front.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*GeneratedMatch, error) {
	if err := validateFieldSize(models.FormatSingleElimination, len(params.Participants)); err != nil {
		return nil, err
	}
	b := buildElimination(params.Participants, models.BracketSingle, "")
	return b.matches, nil
}
