package brackets

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/eytgaming/tournament-platform/models"
)

// SwissStanding is a participant's running score used for pairing.
type SwissStanding struct {
	ParticipantID int
	Score         int
	Seed          int
}

// SwissRounds computes the number of rounds for a field of n, enough to
// separate a single undefeated participant.
func SwissRounds(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

// Generate emits only the opening round; later rounds depend on results and
// are paired with PairSwissRound once the previous round completes.
func (g *SwissGenerator) Generate(ctx context.Context, params GenerateParams) ([]*GeneratedMatch, error) {
	if err := validateFieldSize(models.FormatSwiss, len(params.Participants)); err != nil {
		return nil, err
	}

	standings := make([]SwissStanding, len(params.Participants))
	for i, p := range params.Participants {
		standings[i] = SwissStanding{ParticipantID: p.ID, Seed: i + 1}
	}
	return PairSwissRound(1, standings, nil), nil
}

// PairSwissRound pairs one swiss round: participants sorted by score (seed
// breaks ties), each taking the highest-placed opponent they have not yet
// played. An odd field leaves one participant with a bye.
func PairSwissRound(round int, standings []SwissStanding, played map[int]map[int]bool) []*GeneratedMatch {
	sorted := make([]SwissStanding, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Seed < sorted[j].Seed
	})

	paired := make(map[int]bool, len(sorted))
	matches := make([]*GeneratedMatch, 0, len(sorted)/2+1)
	order := 0

	for i, s := range sorted {
		if paired[s.ParticipantID] {
			continue
		}
		opponent := -1
		for j := i + 1; j < len(sorted); j++ {
			o := sorted[j]
			if paired[o.ParticipantID] || hasPlayed(played, s.ParticipantID, o.ParticipantID) {
				continue
			}
			opponent = j
			break
		}
		if opponent == -1 {
			// Relax the rematch constraint before handing out a bye: an
			// unpaired participant takes the nearest available opponent.
			for j := i + 1; j < len(sorted); j++ {
				if !paired[sorted[j].ParticipantID] {
					opponent = j
					break
				}
			}
		}
		if opponent == -1 {
			paired[s.ParticipantID] = true
			matches = append(matches, &GeneratedMatch{
				UID:              fmt.Sprintf("SR%dBye", round),
				BracketType:      models.BracketSingle,
				Round:            round,
				IsBye:            true,
				ByeParticipantID: intPtr(s.ParticipantID),
			})
			continue
		}

		o := sorted[opponent]
		paired[s.ParticipantID] = true
		paired[o.ParticipantID] = true
		order++
		matches = append(matches, &GeneratedMatch{
			UID:            fmt.Sprintf("SR%dM%d", round, order),
			BracketType:    models.BracketSingle,
			Round:          round,
			OrderInRound:   order,
			Participant1ID: intPtr(s.ParticipantID),
			Participant2ID: intPtr(o.ParticipantID),
		})
	}
	return matches
}

func hasPlayed(played map[int]map[int]bool, a, b int) bool {
	if played == nil {
		return false
	}
	return played[a][b] || played[b][a]
}
