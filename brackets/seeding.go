package brackets

import (
	"math/rand"
	"sort"

	"github.com/eytgaming/tournament-platform/models"
)

// ApplySeeding orders the participant list according to the tournament's
// seeding method and returns a new slice; the input is left untouched.
// Position in the returned slice is the participant's seed (best first).
func ApplySeeding(participants []*models.Participant, method models.SeedingMethod) []*models.Participant {
	seeded := make([]*models.Participant, len(participants))
	copy(seeded, participants)

	switch method {
	case models.SeedingSkill:
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].Rating() > seeded[j].Rating()
		})
	case models.SeedingRegistrationOrder:
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].RegisteredAt.Before(seeded[j].RegisteredAt)
		})
	case models.SeedingRandom:
		rand.Shuffle(len(seeded), func(i, j int) {
			seeded[i], seeded[j] = seeded[j], seeded[i]
		})
	default:
		// Unknown methods keep registration order rather than failing a
		// whole generation run.
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].RegisteredAt.Before(seeded[j].RegisteredAt)
		})
	}
	return seeded
}
