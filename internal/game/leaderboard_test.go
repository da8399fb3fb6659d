package game

import "testing"

func TestLeaderboardTop(t *testing.T) {
	lb := NewLeaderboard(1)
	lb.Update("p3", 300)
	lb.Update("p1", 100)
	lb.Update("p2", 300)
	lb.Update("p4", 0)

	top := lb.Top(3)
	want := []LeaderboardEntry{
		{PlayerID: "p2", Score: 300, Rank: 1},
		{PlayerID: "p3", Score: 300, Rank: 2},
		{PlayerID: "p1", Score: 100, Rank: 3},
	}
	if len(top) != len(want) {
		t.Fatalf("Top(3) = %+v", top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("Top(3)[%d] = %+v, want %+v", i, top[i], want[i])
		}
	}

	lb.Update("p1", 500)
	if r := lb.Rank("p1"); r != 1 {
		t.Errorf("Rank(p1) after update = %d, want 1", r)
	}

	lb.Remove("p1")
	if lb.Rank("p1") != 0 || lb.Len() != 3 {
		t.Errorf("removed player still ranked: rank=%d len=%d", lb.Rank("p1"), lb.Len())
	}
	if all := lb.Top(100); len(all) != 3 {
		t.Errorf("Top(100) = %d entries, want 3", len(all))
	}
}

func TestLeaderboardEntry(t *testing.T) {
	lb := NewLeaderboard(1)
	lb.Update("p1", 100)
	lb.Update("p2", 400)

	tests := []struct {
		id     string
		want   LeaderboardEntry
		wantOK bool
	}{
		{"p2", LeaderboardEntry{PlayerID: "p2", Score: 400, Rank: 1}, true},
		{"p1", LeaderboardEntry{PlayerID: "p1", Score: 100, Rank: 2}, true},
		{"p9", LeaderboardEntry{}, false},
	}
	for _, tt := range tests {
		got, ok := lb.Entry(tt.id)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Entry(%q) = %+v, %v; want %+v, %v", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}

	lb.Remove("p2")
	if e, ok := lb.Entry("p1"); !ok || e.Rank != 1 {
		t.Errorf("Entry(p1) after removal = %+v, %v", e, ok)
	}
}
