package brackets

import (
	"context"
	"fmt"

	"github.com/eytgaming/tournament-platform/models"
)

// lbSlot is a position in the losers bracket: fed either by the loser of a
// winners-bracket match or by the winner of an earlier losers match. A bye
// slot marks a feed that never materializes (the winners match was a bye).
type lbSlot struct {
	loserSourceUID  *string
	winnerSourceUID *string
	bye             bool
}

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string {
	return "DoubleElimination"
}

// Generate lays out a winners bracket identical to single elimination, a
// losers bracket receiving winners-round losers in alternating minor/major
// rounds, and a grand final between the two bracket survivors.
func (g *DoubleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*GeneratedMatch, error) {
	if err := validateFieldSize(models.FormatDoubleElimination, len(params.Participants)); err != nil {
		return nil, err
	}

	wb := buildElimination(params.Participants, models.BracketWinners, "W")
	totalRounds := roundsForSize(wb.size)

	all := make([]*GeneratedMatch, 0, len(wb.matches)*2)
	all = append(all, wb.matches...)

	// Round 1 feeds, in bracket position order. Byes have no loser.
	slots := make([]lbSlot, 0, wb.size/2)
	for _, gm := range wb.matches {
		if gm.Round != 1 {
			continue
		}
		if gm.IsBye {
			slots = append(slots, lbSlot{bye: true})
		} else {
			slots = append(slots, lbSlot{loserSourceUID: strPtr(gm.UID)})
		}
	}

	lbRound := 0
	var lbMatches []*GeneratedMatch

	pairAdjacent := func(in []lbSlot) []lbSlot {
		lbRound++
		out := make([]lbSlot, 0, len(in)/2)
		order := 0
		for i := 0; i < len(in); i += 2 {
			s1, s2 := in[i], in[i+1]
			switch {
			case s1.bye && s2.bye:
				out = append(out, lbSlot{bye: true})
			case s1.bye:
				out = append(out, s2)
			case s2.bye:
				out = append(out, s1)
			default:
				order++
				gm := lbMatch(lbRound, order, s1, s2)
				lbMatches = append(lbMatches, gm)
				out = append(out, lbSlot{winnerSourceUID: strPtr(gm.UID)})
			}
		}
		return out
	}

	// Major rounds cross the losers-bracket survivors with the losers
	// dropping from the next winners round. Incoming feeds are reversed so
	// a participant does not immediately rematch a bracket neighbour.
	pairColumns := func(survivors, incoming []lbSlot) []lbSlot {
		lbRound++
		out := make([]lbSlot, 0, len(survivors))
		order := 0
		for i := range survivors {
			s := survivors[i]
			in := incoming[len(incoming)-1-i]
			switch {
			case s.bye && in.bye:
				out = append(out, lbSlot{bye: true})
			case s.bye:
				out = append(out, in)
			case in.bye:
				out = append(out, s)
			default:
				order++
				gm := lbMatch(lbRound, order, s, in)
				lbMatches = append(lbMatches, gm)
				out = append(out, lbSlot{winnerSourceUID: strPtr(gm.UID)})
			}
		}
		return out
	}

	if len(slots) > 1 {
		slots = pairAdjacent(slots)
	}
	for r := 2; r <= totalRounds; r++ {
		incoming := make([]lbSlot, 0, len(wb.rounds[r-1]))
		for _, gm := range wb.rounds[r-1] {
			incoming = append(incoming, lbSlot{loserSourceUID: strPtr(gm.UID)})
		}
		slots = pairColumns(slots, incoming)
		if r < totalRounds && len(slots) > 1 {
			slots = pairAdjacent(slots)
		}
	}

	all = append(all, lbMatches...)

	if len(slots) != 1 || slots[0].bye {
		return nil, fmt.Errorf("losers bracket construction left %d survivors", len(slots))
	}

	grandFinal := &GeneratedMatch{
		UID:              "GF1",
		BracketType:      models.BracketWinners,
		Round:            totalRounds + 1,
		OrderInRound:     1,
		WinnerSource1UID: strPtr(wb.finalUID),
		WinnerSource2UID: slots[0].winnerSourceUID,
		LoserSource2UID:  slots[0].loserSourceUID,
	}
	all = append(all, grandFinal)

	return all, nil
}

func lbMatch(round, order int, s1, s2 lbSlot) *GeneratedMatch {
	return &GeneratedMatch{
		UID:              fmt.Sprintf("LR%dM%d", round, order),
		BracketType:      models.BracketLosers,
		Round:            round,
		OrderInRound:     order,
		WinnerSource1UID: s1.winnerSourceUID,
		LoserSource1UID:  s1.loserSourceUID,
		WinnerSource2UID: s2.winnerSourceUID,
		LoserSource2UID:  s2.loserSourceUID,
	}
}
