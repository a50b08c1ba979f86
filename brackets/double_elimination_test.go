package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytgaming/tournament-platform/models"
)

func findByUID(t *testing.T, matches []*GeneratedMatch, uid string) *GeneratedMatch {
	t.Helper()
	for _, m := range matches {
		if m.UID == uid {
			return m
		}
	}
	t.Fatalf("match %s not found", uid)
	return nil
}

func TestDoubleEliminationGrandFinalExists(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8, 16} {
		matches := generate(t, models.FormatDoubleElimination, n)
		gf := findByUID(t, matches, "GF1")
		require.NotNil(t, gf.WinnerSource1UID, "n=%d", n)
		require.True(t, gf.WinnerSource2UID != nil || gf.LoserSource2UID != nil, "n=%d", n)
		assert.Equal(t, models.BracketWinners, gf.BracketType)
	}
}

func TestDoubleEliminationMatchCountFullField(t *testing.T) {
	// With a full power-of-two field: N-1 winners matches, N-2 losers
	// matches, one grand final.
	for _, n := range []int{4, 8, 16} {
		matches := playable(generate(t, models.FormatDoubleElimination, n))

		var winners, losers, finals int
		for _, m := range matches {
			switch {
			case m.UID == "GF1":
				finals++
			case m.BracketType == models.BracketWinners:
				winners++
			case m.BracketType == models.BracketLosers:
				losers++
			}
		}
		assert.Equal(t, n-1, winners, "n=%d", n)
		assert.Equal(t, n-2, losers, "n=%d", n)
		assert.Equal(t, 1, finals, "n=%d", n)
	}
}

func TestDoubleEliminationTwoEntrants(t *testing.T) {
	// Two entrants: one winners final, no losers matches, a grand final
	// fed by the winners final from both sides.
	matches := playable(generate(t, models.FormatDoubleElimination, 2))
	require.Len(t, matches, 2)

	gf := findByUID(t, matches, "GF1")
	wbFinal := findByUID(t, matches, "WR1M1")

	require.NotNil(t, gf.WinnerSource1UID)
	assert.Equal(t, wbFinal.UID, *gf.WinnerSource1UID)
	require.NotNil(t, gf.LoserSource2UID)
	assert.Equal(t, wbFinal.UID, *gf.LoserSource2UID)
}

func TestDoubleEliminationEveryLoserDropsOnce(t *testing.T) {
	matches := playable(generate(t, models.FormatDoubleElimination, 8))

	// Each winners-bracket match except the grand final must appear as a
	// loser source exactly once: nobody is eliminated after one defeat.
	loserRefs := map[string]int{}
	for _, m := range matches {
		for _, src := range []*string{m.LoserSource1UID, m.LoserSource2UID} {
			if src != nil {
				loserRefs[*src]++
			}
		}
	}
	for _, m := range matches {
		if m.BracketType != models.BracketWinners || m.UID == "GF1" {
			continue
		}
		assert.Equal(t, 1, loserRefs[m.UID], "winners match %s", m.UID)
	}
}

func TestDoubleEliminationLosersFeedOnlyFromKnownMatches(t *testing.T) {
	for _, n := range []int{3, 5, 6, 7, 12} {
		matches := playable(generate(t, models.FormatDoubleElimination, n))
		uids := map[string]bool{}
		for _, m := range matches {
			uids[m.UID] = true
		}
		for _, m := range matches {
			for _, src := range []*string{m.WinnerSource1UID, m.WinnerSource2UID, m.LoserSource1UID, m.LoserSource2UID} {
				if src != nil {
					assert.True(t, uids[*src], "n=%d: %s references unknown %s", n, m.UID, *src)
				}
			}
		}
	}
}
