package scoring

import (
	"errors"
	"sort"

	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

var ErrNegativePoints = errors.New("points must not be negative")

// Scoreboard keeps cumulative totals in first-seen order so ties sort stably.
type Scoreboard struct {
	order  []string
	totals map[string]int
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{totals: make(map[string]int)}
}

func (b *Scoreboard) Add(id string, pts int) error {
	if pts < 0 {
		return ErrNegativePoints
	}
	if _, ok := b.totals[id]; !ok {
		b.order = append(b.order, id)
	}
	b.totals[id] += pts
	return nil
}

func (b *Scoreboard) Total(id string) int { return b.totals[id] }

func (b *Scoreboard) Len() int { return len(b.order) }

func (b *Scoreboard) Totals() map[string]int {
	out := make(map[string]int, len(b.totals))
	for id, t := range b.totals {
		out[id] = t
	}
	return out
}

// Clone returns an independent copy.
func (b *Scoreboard) Clone() *Scoreboard {
	if b == nil {
		return NewScoreboard()
	}
	return &Scoreboard{
		order:  append([]string(nil), b.order...),
		totals: b.Totals(),
	}
}

// Leaderboard sorts by descending total. Unknown names fall back to the id prefix.
func (b *Scoreboard) Leaderboard(names map[string]string) []types.LeaderboardEntry {
	out := make([]types.LeaderboardEntry, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, types.LeaderboardEntry{ID: id, Name: displayName(names, id), Total: b.totals[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

func displayName(names map[string]string, id string) string {
	if n := names[id]; n != "" {
		return n
	}
	if len(id) > 5 {
		return id[:5]
	}
	return id
}
