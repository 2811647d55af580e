// Package stats aggregates training sessions into per-student, per-activity and per-group summaries
// and evaluates the reward ladder and category badges.
//
// Every function is pure: inputs are never mutated and no function fails.
// Missing numbers are zero-valued and count as zero.
package stats

import (
	"math"
	"sort"

	"github.com/ignasimgol/tfm-uoc/core/training"
)

const (
	// UnknownActivity buckets sessions logged without an activity type.
	UnknownActivity = "Unknown"

	// TopActivitiesLimit is the number of activities TopActivities keeps.
	TopActivitiesLimit = 5
)

type (
	StudentStats struct {
		TotalMinutes int     `json:"total_minutes"`
		Sessions     int     `json:"sessions"`
		AvgEnjoyment float64 `json:"avg_enjoyment"`
	}

	ActivityAgg struct {
		Activity     string  `json:"activity"`
		Sessions     int     `json:"sessions"`
		TotalMinutes int     `json:"total_minutes"`
		AvgEnjoyment float64 `json:"avg_enjoyment"`
	}

	Totals struct {
		Sessions     int     `json:"sessions"`
		TotalMinutes int     `json:"total_minutes"`
		AvgEnjoyment float64 `json:"avg_enjoyment"`
	}

	GroupTotals struct {
		Totals
		DistinctStudents int `json:"distinct_students"`
	}
)

// accumulator sums minutes and intensities of a bucket of sessions.
type accumulator struct {
	minutes      int
	intensitySum int
	count        int
}

func (acc *accumulator) add(sess training.Session) {
	acc.minutes += sess.Duration
	acc.intensitySum += sess.Intensity
	acc.count++
}

func (acc accumulator) avg() float64 {
	if acc.count == 0 {
		return 0
	}
	return round2(float64(acc.intensitySum) / float64(acc.count))
}

// round2 rounds f to 2 decimals, halves away from zero.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// StatsByStudent partitions sessions by student.
func StatsByStudent(sessions []training.Session) map[string]StudentStats {
	accs := make(map[string]*accumulator)
	for _, sess := range sessions {
		acc, ok := accs[sess.StudentID]
		if !ok {
			acc = new(accumulator)
			accs[sess.StudentID] = acc
		}
		acc.add(sess)
	}

	byStudent := make(map[string]StudentStats, len(accs))
	for id, acc := range accs {
		byStudent[id] = StudentStats{
			TotalMinutes: acc.minutes,
			Sessions:     acc.count,
			AvgEnjoyment: acc.avg(),
		}
	}
	return byStudent
}

// ActivitiesByCount partitions sessions by activity type, most practised first:
// sessions desc, then total minutes desc, then first-seen order.
func ActivitiesByCount(sessions []training.Session) []ActivityAgg {
	var order []string
	accs := make(map[string]*accumulator)
	for _, sess := range sessions {
		activity := sess.ActivityType
		if activity == "" {
			activity = UnknownActivity
		}
		acc, ok := accs[activity]
		if !ok {
			acc = new(accumulator)
			accs[activity] = acc
			order = append(order, activity)
		}
		acc.add(sess)
	}

	aggs := make([]ActivityAgg, 0, len(order))
	for _, activity := range order {
		acc := accs[activity]
		aggs = append(aggs, ActivityAgg{
			Activity:     activity,
			Sessions:     acc.count,
			TotalMinutes: acc.minutes,
			AvgEnjoyment: acc.avg(),
		})
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].Sessions != aggs[j].Sessions {
			return aggs[i].Sessions > aggs[j].Sessions
		}
		return aggs[i].TotalMinutes > aggs[j].TotalMinutes
	})
	return aggs
}

// TopActivities returns the TopActivitiesLimit most practised activities.
func TopActivities(sessions []training.Session) []ActivityAgg {
	aggs := ActivitiesByCount(sessions)
	if len(aggs) > TopActivitiesLimit {
		aggs = aggs[:TopActivitiesLimit]
	}
	return aggs
}

// SumTotals aggregates the whole set of sessions.
func SumTotals(sessions []training.Session) Totals {
	var acc accumulator
	for _, sess := range sessions {
		acc.add(sess)
	}
	return Totals{
		Sessions:     acc.count,
		TotalMinutes: acc.minutes,
		AvgEnjoyment: acc.avg(),
	}
}

// SumGroupTotals aggregates the sessions of a group.
// DistinctStudents counts the students who logged a session, or the members when nobody did.
func SumGroupTotals(sessions []training.Session, memberIDs []string) GroupTotals {
	students := make(map[string]struct{})
	for _, sess := range sessions {
		students[sess.StudentID] = struct{}{}
	}
	distinct := len(students)
	if distinct == 0 {
		members := make(map[string]struct{}, len(memberIDs))
		for _, id := range memberIDs {
			members[id] = struct{}{}
		}
		distinct = len(members)
	}
	return GroupTotals{
		Totals:           SumTotals(sessions),
		DistinctStudents: distinct,
	}
}

// PlayedTypes returns the distinct non-empty activity types of sessions, in first-seen order.
func PlayedTypes(sessions []training.Session) []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, sess := range sessions {
		if sess.ActivityType == "" {
			continue
		}
		if _, ok := seen[sess.ActivityType]; ok {
			continue
		}
		seen[sess.ActivityType] = struct{}{}
		types = append(types, sess.ActivityType)
	}
	return types
}

// LatestByStudent keeps the first session of each student; sessions must be ordered most recent first.
func LatestByStudent(sessions []training.Session) map[string]training.Session {
	latest := make(map[string]training.Session)
	for _, sess := range sessions {
		if _, ok := latest[sess.StudentID]; !ok {
			latest[sess.StudentID] = sess
		}
	}
	return latest
}
