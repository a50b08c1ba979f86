package brackets

import (
	"context"
	"fmt"

	"github.com/eytgaming/tournament-platform/models"
)

const groupSize = 4

type GroupStageGenerator struct{}

func NewGroupStageGenerator() Generator {
	return &GroupStageGenerator{}
}

func (g *GroupStageGenerator) Name() string {
	return "GroupStage"
}

// Generate deals the seeded field into pools of up to four, snake order so
// top seeds spread across groups, then schedules round robin inside each.
func (g *GroupStageGenerator) Generate(ctx context.Context, params GenerateParams) ([]*GeneratedMatch, error) {
	if err := validateFieldSize(models.FormatGroupStage, len(params.Participants)); err != nil {
		return nil, err
	}

	n := len(params.Participants)
	groupCount := (n + groupSize - 1) / groupSize
	groups := make([][]int, groupCount)

	idx := 0
	forward := true
	for idx < n {
		if forward {
			for gi := 0; gi < groupCount && idx < n; gi++ {
				groups[gi] = append(groups[gi], params.Participants[idx].ID)
				idx++
			}
		} else {
			for gi := groupCount - 1; gi >= 0 && idx < n; gi-- {
				groups[gi] = append(groups[gi], params.Participants[idx].ID)
				idx++
			}
		}
		forward = !forward
	}

	var matches []*GeneratedMatch
	for gi, ids := range groups {
		num := gi + 1
		if len(ids) < 2 {
			// A one-entrant pool plays nobody; represent it as a bye so
			// standings still list the participant.
			matches = append(matches, &GeneratedMatch{
				UID:              fmt.Sprintf("G%dBye", num),
				BracketType:      models.BracketGroup,
				GroupNumber:      intPtr(num),
				Round:            1,
				IsBye:            true,
				ByeParticipantID: intPtr(ids[0]),
			})
			continue
		}
		prefix := fmt.Sprintf("G%d", num)
		matches = append(matches, circleSchedule(ids, models.BracketGroup, intPtr(num), prefix)...)
	}
	return matches, nil
}
