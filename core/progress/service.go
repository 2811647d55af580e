// Package progress fetches the sessions of a group or a student and aggregates them for display.
package progress

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/stats"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

var ErrNotAStudent = errors.New("only students can log sessions")

type (
	ServiceInterface interface {
		GroupStats(ctx context.Context, grp group.Group) (GroupStats, error)
		GroupKPIs(ctx context.Context, grp group.Group) (GroupKPIs, error)
		ClassSummary(ctx context.Context, grp group.Group) (ClassSummary, error)
		GroupActivity(ctx context.Context, grp group.Group, days int) (GroupActivity, error)
		Rewards(ctx context.Context, studentID string) (Rewards, error)
		RecordSession(ctx context.Context, student user.User, ls training.LogSession) (Recorded, error)
	}

	service struct {
		usrSvc  user.ServiceInterface
		grpSvc  group.ServiceInterface
		trnSvc  training.ServiceInterface
		mailSvc core.EmailService
		logger  core.Logger

		ladder     stats.Ladder
		roster     stats.Roster
		windowDays int
	}
)

var _ ServiceInterface = (*service)(nil)

// NowFunc returns the current time; mockable.
var NowFunc = time.Now

func NewService(
	usrSvc user.ServiceInterface,
	grpSvc group.ServiceInterface,
	trnSvc training.ServiceInterface,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *service {
	roster := make(stats.Roster, len(conf.Rewards.Badges))
	for _, badge := range conf.Rewards.Badges {
		roster[badge.Category] = badge.Types
	}
	return &service{
		usrSvc:     usrSvc,
		grpSvc:     grpSvc,
		trnSvc:     trnSvc,
		mailSvc:    mailSvc,
		logger:     logger,
		ladder:     stats.NewLadder(conf.Rewards.Thresholds),
		roster:     roster,
		windowDays: conf.Groups.ActivityWindowDays,
	}
}

// members returns the ids and the users of the group's students, sorted by name.
func (svc *service) members(ctx context.Context, grp group.Group) ([]string, []user.User, error) {
	ids, err := svc.grpSvc.MemberIDs(ctx, grp.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying member IDs")
	}
	if len(ids) == 0 {
		return ids, []user.User{}, nil
	}
	students, err := svc.usrSvc.Query(ctx, &user.QueryFilter{IDs: ids}, user.ByNameAsc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying members")
	}
	return ids, students, nil
}

func (svc *service) groupSessions(ctx context.Context, grp group.Group, since string) ([]training.Session, error) {
	filter := &training.QueryFilter{GroupIDs: []string{grp.ID}, DateFrom: since}
	sessions, err := svc.trnSvc.Query(ctx, filter, training.ByDateDesc)
	return sessions, errors.Wrap(err, "querying group sessions")
}

// GroupStats breaks down the sessions logged in the group by student and by activity.
func (svc *service) GroupStats(ctx context.Context, grp group.Group) (GroupStats, error) {
	_, students, err := svc.members(ctx, grp)
	if err != nil {
		return GroupStats{}, err
	}
	sessions, err := svc.groupSessions(ctx, grp, "")
	if err != nil {
		return GroupStats{}, err
	}
	return GroupStats{
		Group:         grp,
		Students:      students,
		ByStudent:     stats.StatsByStudent(sessions),
		TopActivities: stats.TopActivities(sessions),
	}, nil
}

func (svc *service) GroupKPIs(ctx context.Context, grp group.Group) (GroupKPIs, error) {
	ids, err := svc.grpSvc.MemberIDs(ctx, grp.ID)
	if err != nil {
		return GroupKPIs{}, errors.Wrap(err, "querying member IDs")
	}
	sessions, err := svc.groupSessions(ctx, grp, "")
	if err != nil {
		return GroupKPIs{}, err
	}
	return GroupKPIs{
		Group:  grp,
		Totals: stats.SumGroupTotals(sessions, ids),
	}, nil
}

// ClassSummary aggregates every session of the group's members, wherever they were logged.
func (svc *service) ClassSummary(ctx context.Context, grp group.Group) (ClassSummary, error) {
	ids, students, err := svc.members(ctx, grp)
	if err != nil {
		return ClassSummary{}, err
	}
	summary := ClassSummary{
		Group:    grp,
		Students: make([]StudentSummary, 0, len(students)),
	}
	if len(ids) == 0 {
		return summary, nil
	}

	sessions, err := svc.trnSvc.Query(ctx, &training.QueryFilter{StudentIDs: ids}, training.ByDateDesc)
	if err != nil {
		return ClassSummary{}, errors.Wrap(err, "querying member sessions")
	}
	byStudent := stats.StatsByStudent(sessions)
	summary.Totals = stats.SumTotals(sessions)
	for _, student := range students {
		summary.Students = append(summary.Students, StudentSummary{
			Student: student,
			Stats:   byStudent[student.ID], // zero value when no sessions
		})
	}
	return summary, nil
}

// GroupActivity returns the sessions logged in the group during the last `days` days (the configured window when <= 0).
func (svc *service) GroupActivity(ctx context.Context, grp group.Group, days int) (GroupActivity, error) {
	if days <= 0 {
		days = svc.windowDays
	}
	since := core.FormatDate(NowFunc().UTC().AddDate(0, 0, -days))

	_, students, err := svc.members(ctx, grp)
	if err != nil {
		return GroupActivity{}, err
	}
	sessions, err := svc.groupSessions(ctx, grp, since)
	if err != nil {
		return GroupActivity{}, err
	}
	return GroupActivity{
		Group:    grp,
		Since:    since,
		Students: students,
		Latest:   stats.LatestByStudent(sessions),
		Sessions: sessions,
	}, nil
}

func (svc *service) Rewards(ctx context.Context, studentID string) (Rewards, error) {
	sessions, err := svc.trnSvc.QueryByStudent(ctx, studentID)
	if err != nil {
		return Rewards{}, errors.Wrap(err, "querying student sessions")
	}
	return svc.rewards(sessions), nil
}

func (svc *service) rewards(sessions []training.Session) Rewards {
	totals := stats.SumTotals(sessions)
	played := stats.PlayedTypes(sessions)
	return Rewards{
		Totals:      totals,
		State:       stats.EvaluateRewards(totals.TotalMinutes, svc.ladder),
		Thresholds:  svc.ladder,
		Badges:      stats.EvaluateBadges(played, svc.roster),
		PlayedTypes: played,
	}
}

// RecordSession saves the student's session of the day in their first group, then e-mails the rewards it unlocked.
func (svc *service) RecordSession(ctx context.Context, student user.User, ls training.LogSession) (Recorded, error) {
	if !student.IsStudent() {
		return Recorded{}, ErrNotAStudent
	}

	before, err := svc.Rewards(ctx, student.ID)
	if err != nil {
		return Recorded{}, err
	}

	groupID, err := svc.grpSvc.StudentGroupID(ctx, student.ID)
	if err != nil {
		return Recorded{}, errors.Wrap(err, "finding student group")
	}
	sess, err := svc.trnSvc.Save(ctx, student.ID, groupID, ls)
	if err != nil {
		return Recorded{}, err
	}

	after, err := svc.Rewards(ctx, student.ID)
	if err != nil {
		return Recorded{}, err
	}

	unlocked := stats.NewlyAchieved(before.State, after.State)
	if len(unlocked) > 0 {
		svc.notifyUnlocked(student, after.State, unlocked)
	}
	return Recorded{
		Session:  sess,
		Rewards:  after.State,
		Unlocked: unlocked,
	}, nil
}

func (svc *service) notifyUnlocked(student user.User, state stats.RewardState, unlocked []int) {
	data := rewardUnlockedData{
		Name:         student.Name,
		TotalMinutes: state.TotalMinutes,
		Thresholds:   unlocked,
	}
	if state.NextThreshold != nil {
		data.NextThreshold = *state.NextThreshold
	}
	svc.logger.Info(fmt.Sprintf("student %s unlocked rewards %v", student.ID, unlocked))
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "New reward unlocked",
		TemplateName: "reward_unlocked",
		TemplateData: data,
	})
}
