package brackets

import (
	"context"
	"fmt"

	"github.com/eytgaming/tournament-platform/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate produces the all-pairs schedule with the circle method: one fixed
// pivot, the rest rotating, so every participant plays at most once per
// round. An odd field gets a rotating sit-out instead of a match.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*GeneratedMatch, error) {
	if err := validateFieldSize(models.FormatRoundRobin, len(params.Participants)); err != nil {
		return nil, err
	}
	ids := make([]int, len(params.Participants))
	for i, p := range params.Participants {
		ids[i] = p.ID
	}
	return circleSchedule(ids, models.BracketSingle, nil, ""), nil
}

func circleSchedule(ids []int, btype models.BracketType, groupNumber *int, uidPrefix string) []*GeneratedMatch {
	ring := make([]*int, 0, len(ids)+1)
	for i := range ids {
		ring = append(ring, &ids[i])
	}
	if len(ring)%2 != 0 {
		ring = append(ring, nil) // sit-out slot
	}

	rounds := len(ring) - 1
	half := len(ring) / 2
	matches := make([]*GeneratedMatch, 0, rounds*half)

	for r := 1; r <= rounds; r++ {
		order := 0
		for i := 0; i < half; i++ {
			p1 := ring[i]
			p2 := ring[len(ring)-1-i]
			if p1 == nil || p2 == nil {
				continue
			}
			order++
			matches = append(matches, &GeneratedMatch{
				UID:            fmt.Sprintf("%sRR%dM%d", uidPrefix, r, order),
				BracketType:    btype,
				GroupNumber:    groupNumber,
				Round:          r,
				OrderInRound:   order,
				Participant1ID: intPtr(*p1),
				Participant2ID: intPtr(*p2),
			})
		}
		// Rotate everything but the first position.
		last := ring[len(ring)-1]
		copy(ring[2:], ring[1:len(ring)-1])
		ring[1] = last
	}
	return matches
}
