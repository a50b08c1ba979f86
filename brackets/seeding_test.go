package brackets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytgaming/tournament-platform/models"
)

func seedingField() []*models.Participant {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*models.Participant{
		{ID: 1, User: &models.User{ID: 11, Rating: 1200}, RegisteredAt: base.Add(3 * time.Minute)},
		{ID: 2, User: &models.User{ID: 12, Rating: 1800}, RegisteredAt: base},
		{ID: 3, Team: &models.Team{ID: 21, Name: "Nightcap", Rating: 1500}, RegisteredAt: base.Add(1 * time.Minute)},
		{ID: 4, User: &models.User{ID: 13, Rating: 900}, RegisteredAt: base.Add(2 * time.Minute)},
	}
}

func idsOf(participants []*models.Participant) []int {
	ids := make([]int, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	return ids
}

func TestApplySeedingSkill(t *testing.T) {
	seeded := ApplySeeding(seedingField(), models.SeedingSkill)
	assert.Equal(t, []int{2, 3, 1, 4}, idsOf(seeded))
}

func TestApplySeedingRegistrationOrder(t *testing.T) {
	seeded := ApplySeeding(seedingField(), models.SeedingRegistrationOrder)
	assert.Equal(t, []int{2, 3, 4, 1}, idsOf(seeded))
}

func TestApplySeedingRandomKeepsField(t *testing.T) {
	field := seedingField()
	seeded := ApplySeeding(field, models.SeedingRandom)

	require.Len(t, seeded, len(field))
	assert.ElementsMatch(t, idsOf(field), idsOf(seeded))
}

func TestApplySeedingDoesNotMutateInput(t *testing.T) {
	field := seedingField()
	before := idsOf(field)

	ApplySeeding(field, models.SeedingSkill)
	ApplySeeding(field, models.SeedingRandom)

	assert.Equal(t, before, idsOf(field))
}

func TestApplySeedingUnknownMethodFallsBack(t *testing.T) {
	seeded := ApplySeeding(seedingField(), models.SeedingMethod("coin_flip"))
	assert.Equal(t, []int{2, 3, 4, 1}, idsOf(seeded))
}

func TestApplySeedingSkillStableOnTies(t *testing.T) {
	field := []*models.Participant{
		{ID: 1, User: &models.User{ID: 11, Rating: 1000}},
		{ID: 2, User: &models.User{ID: 12, Rating: 1000}},
		{ID: 3, User: &models.User{ID: 13, Rating: 1000}},
	}
	seeded := ApplySeeding(field, models.SeedingSkill)
	assert.Equal(t, []int{1, 2, 3}, idsOf(seeded))
}
