package stats

import "sort"

type (
	// Ladder is an ascending sequence of cumulative-minutes milestones.
	Ladder []int

	// Roster maps a badge category to the activity types it requires.
	Roster map[string][]string

	RewardState struct {
		TotalMinutes       int   `json:"total_minutes"`
		AchievedThresholds []int `json:"achieved_thresholds"`
		NextThreshold      *int  `json:"next_threshold"`
	}

	CategoryBadge struct {
		Category       string   `json:"category"`
		RequiredTypes  []string `json:"required_types"`
		CompletedTypes []string `json:"completed_types"`
		Achieved       bool     `json:"achieved"`
	}
)

// NewLadder returns the thresholds sorted ascending, without duplicates.
func NewLadder(thresholds []int) Ladder {
	sorted := make([]int, len(thresholds))
	copy(sorted, thresholds)
	sort.Ints(sorted)

	ladder := make(Ladder, 0, len(sorted))
	for i, th := range sorted {
		if i > 0 && th == sorted[i-1] {
			continue
		}
		ladder = append(ladder, th)
	}
	return ladder
}

// EvaluateRewards compares totalMinutes against the ladder.
// Achieved thresholds are those <= totalMinutes; the next one is the smallest > totalMinutes, if any.
func EvaluateRewards(totalMinutes int, ladder Ladder) RewardState {
	ladder = NewLadder(ladder)
	state := RewardState{
		TotalMinutes:       totalMinutes,
		AchievedThresholds: make([]int, 0, len(ladder)),
	}
	for _, th := range ladder {
		if th <= totalMinutes {
			state.AchievedThresholds = append(state.AchievedThresholds, th)
			continue
		}
		next := th
		state.NextThreshold = &next
		break
	}
	return state
}

// NewlyAchieved returns the thresholds achieved in `after` but not in `before`.
func NewlyAchieved(before, after RewardState) []int {
	had := make(map[int]struct{}, len(before.AchievedThresholds))
	for _, th := range before.AchievedThresholds {
		had[th] = struct{}{}
	}
	var unlocked []int
	for _, th := range after.AchievedThresholds {
		if _, ok := had[th]; !ok {
			unlocked = append(unlocked, th)
		}
	}
	return unlocked
}

// EvaluateCategoryBadge intersects the observed activity types with the required ones.
// CompletedTypes keeps the order of required; the badge is achieved when every required type was observed.
func EvaluateCategoryBadge(category string, observed, required []string) CategoryBadge {
	seen := make(map[string]struct{}, len(observed))
	for _, typ := range observed {
		seen[typ] = struct{}{}
	}

	requiredSet := make(map[string]struct{}, len(required))
	requiredTypes := make([]string, 0, len(required))
	completed := make([]string, 0, len(required))
	for _, typ := range required {
		if _, dup := requiredSet[typ]; dup {
			continue
		}
		requiredSet[typ] = struct{}{}
		requiredTypes = append(requiredTypes, typ)
		if _, ok := seen[typ]; ok {
			completed = append(completed, typ)
		}
	}

	return CategoryBadge{
		Category:       category,
		RequiredTypes:  requiredTypes,
		CompletedTypes: completed,
		Achieved:       len(completed) == len(requiredTypes),
	}
}

// Categories returns the roster's categories sorted by name.
func (r Roster) Categories() []string {
	categories := make([]string, 0, len(r))
	for category := range r {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// EvaluateBadges evaluates every category of the roster, ordered by category name.
func EvaluateBadges(observed []string, roster Roster) []CategoryBadge {
	badges := make([]CategoryBadge, 0, len(roster))
	for _, category := range roster.Categories() {
		badges = append(badges, EvaluateCategoryBadge(category, observed, roster[category]))
	}
	return badges
}
