package game

import "wave-arena/internal/game/ranking"

// Leaderboard ranks connected players by score.
//
// Operations:
//   - Update: O(log n)
//   - Rank: O(log n)
//   - Top: O(log n + k)
type Leaderboard struct {
	list *ranking.SkipList
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// NewLeaderboard creates an empty leaderboard
func NewLeaderboard(seed int64) *Leaderboard {
	return &Leaderboard{list: ranking.NewSkipList(seed)}
}

// Update records a player's current score
func (lb *Leaderboard) Update(playerID string, score int) {
	lb.list.Set(playerID, float64(score))
}

// Remove drops a departed player
func (lb *Leaderboard) Remove(playerID string) {
	lb.list.Remove(playerID)
}

// Rank returns a player's 1-based rank, 0 if unknown
func (lb *Leaderboard) Rank(playerID string) int {
	return lb.list.Rank(playerID)
}

// Entry returns a player's score and rank
func (lb *Leaderboard) Entry(playerID string) (LeaderboardEntry, bool) {
	score, ok := lb.list.Score(playerID)
	if !ok {
		return LeaderboardEntry{}, false
	}
	rank := lb.Rank(playerID)
	if rank == 0 {
		// removed between the two lookups
		return LeaderboardEntry{}, false
	}
	return LeaderboardEntry{PlayerID: playerID, Score: int(score), Rank: rank}, true
}

// Top returns the best n players, highest score first.
// Equal scores are ordered by player id.
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	entries := lb.list.Range(1, n)
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{PlayerID: e.Key, Score: int(e.Score), Rank: i + 1}
	}
	return out
}

// Len returns the number of ranked players
func (lb *Leaderboard) Len() int {
	return lb.list.Len()
}
