package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestEvaluateRewards(t *testing.T) {
	short := Ladder{100, 250, 500, 750, 1000}
	long := Ladder{100, 250, 500, 750, 1000, 1500, 2000, 3000}

	tests := []struct {
		name   string
		total  int
		ladder Ladder
		want   RewardState
	}{
		{
			name: "nothing achieved", total: 0, ladder: short,
			want: RewardState{TotalMinutes: 0, AchievedThresholds: []int{}, NextThreshold: intPtr(100)},
		},
		{
			name: "between thresholds", total: 260, ladder: short,
			want: RewardState{TotalMinutes: 260, AchievedThresholds: []int{100, 250}, NextThreshold: intPtr(500)},
		},
		{
			name: "exactly on a threshold", total: 750, ladder: short,
			want: RewardState{TotalMinutes: 750, AchievedThresholds: []int{100, 250, 500, 750}, NextThreshold: intPtr(1000)},
		},
		{
			name: "ladder exhausted", total: 5000, ladder: short,
			want: RewardState{TotalMinutes: 5000, AchievedThresholds: []int{100, 250, 500, 750, 1000}},
		},
		{
			name: "max threshold met", total: 3000, ladder: long,
			want: RewardState{TotalMinutes: 3000, AchievedThresholds: []int(long)},
		},
		{
			name: "unsorted ladder with duplicates", total: 300, ladder: Ladder{500, 100, 250, 100},
			want: RewardState{TotalMinutes: 300, AchievedThresholds: []int{100, 250}, NextThreshold: intPtr(500)},
		},
		{
			name: "empty ladder", total: 300, ladder: nil,
			want: RewardState{TotalMinutes: 300, AchievedThresholds: []int{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRewards(tt.total, tt.ladder)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EvaluateRewards() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewLadder(t *testing.T) {
	thresholds := []int{3000, 100, 250, 100}
	assert.Equal(t, Ladder{100, 250, 3000}, NewLadder(thresholds))
	assert.Equal(t, []int{3000, 100, 250, 100}, thresholds, "input must not be mutated")
}

func TestNewlyAchieved(t *testing.T) {
	ladder := Ladder{100, 250, 500, 1000, 2000}
	tests := []struct {
		name          string
		before, after int
		want          []int
	}{
		{name: "none", before: 120, after: 200},
		{name: "one", before: 90, after: 110, want: []int{100}},
		{name: "many", before: 90, after: 600, want: []int{100, 250, 500}},
		{name: "lost", before: 600, after: 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewlyAchieved(EvaluateRewards(tt.before, ladder), EvaluateRewards(tt.after, ladder))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateCategoryBadge(t *testing.T) {
	team := []string{"basketball", "football", "volleyball", "hockey", "handball"}

	tests := []struct {
		name     string
		observed []string
		required []string
		want     CategoryBadge
	}{
		{
			name: "partially completed", observed: []string{"running", "football"}, required: team,
			want: CategoryBadge{Category: "team", RequiredTypes: team, CompletedTypes: []string{"football"}},
		},
		{
			name: "nothing observed", observed: nil, required: team,
			want: CategoryBadge{Category: "team", RequiredTypes: team, CompletedTypes: []string{}},
		},
		{
			name: "achieved", observed: []string{"handball", "hockey", "gym", "volleyball", "football", "basketball"}, required: team,
			want: CategoryBadge{Category: "team", RequiredTypes: team, CompletedTypes: team, Achieved: true},
		},
		{
			name: "duplicated required type", observed: []string{"football"}, required: []string{"football", "football"},
			want: CategoryBadge{Category: "team", RequiredTypes: []string{"football"}, CompletedTypes: []string{"football"}, Achieved: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateCategoryBadge("team", tt.observed, tt.required)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EvaluateCategoryBadge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateBadges(t *testing.T) {
	roster := Roster{
		"team":    {"basketball", "football"},
		"outdoor": {"running", "trekking"},
	}
	badges := EvaluateBadges([]string{"running", "trekking", "football"}, roster)

	want := []CategoryBadge{
		{Category: "outdoor", RequiredTypes: []string{"running", "trekking"}, CompletedTypes: []string{"running", "trekking"}, Achieved: true},
		{Category: "team", RequiredTypes: []string{"basketball", "football"}, CompletedTypes: []string{"football"}},
	}
	if diff := cmp.Diff(want, badges); diff != "" {
		t.Errorf("EvaluateBadges() mismatch (-want +got):\n%s", diff)
	}
}
