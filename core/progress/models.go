package progress

import (
	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/stats"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

type (
	// GroupStats is the per-student and top-activities breakdown of a group's sessions.
	GroupStats struct {
		Group         group.Group                   `json:"group"`
		Students      []user.User                   `json:"students"`
		ByStudent     map[string]stats.StudentStats `json:"by_student"`
		TopActivities []stats.ActivityAgg           `json:"top_activities"`
	}

	// GroupKPIs are the headline numbers of a group.
	GroupKPIs struct {
		Group  group.Group       `json:"group"`
		Totals stats.GroupTotals `json:"totals"`
	}

	StudentSummary struct {
		Student user.User          `json:"student"`
		Stats   stats.StudentStats `json:"stats"`
	}

	// ClassSummary covers every session the group's members ever logged; members without sessions get zeroed stats.
	ClassSummary struct {
		Group    group.Group      `json:"group"`
		Totals   stats.Totals     `json:"totals"`
		Students []StudentSummary `json:"students"`
	}

	// GroupActivity is the recent activity of a group.
	GroupActivity struct {
		Group    group.Group                 `json:"group"`
		Since    string                      `json:"since"`
		Students []user.User                 `json:"students"`
		Latest   map[string]training.Session `json:"latest"`
		Sessions []training.Session          `json:"sessions"`
	}

	// Rewards is a student's progress on the reward ladder and the category badges.
	Rewards struct {
		Totals      stats.Totals          `json:"totals"`
		State       stats.RewardState     `json:"state"`
		Thresholds  stats.Ladder          `json:"thresholds"`
		Badges      []stats.CategoryBadge `json:"badges"`
		PlayedTypes []string              `json:"played_types"`
	}

	// Recorded is the outcome of logging a session.
	Recorded struct {
		Session  training.Session  `json:"session"`
		Rewards  stats.RewardState `json:"rewards"`
		Unlocked []int             `json:"unlocked"`
	}

	rewardUnlockedData struct {
		Name          string
		TotalMinutes  int
		Thresholds    []int
		NextThreshold int
	}
)
