package training

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
)

var ErrNotFound = errors.New("training session not found")

type (
	Repository interface {
		// UpsertSession inserts sess or, when the student already logged that date, replaces that day's session.
		UpsertSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		QuerySessions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Session, error)
		GetSession(ctx context.Context, studentID, date string, exec ...core.DBExecutor) (Session, error)
		DeleteSession(ctx context.Context, studentID, date string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Save(ctx context.Context, studentID string, groupID null.String, ls LogSession) (Session, error)
		Delete(ctx context.Context, studentID, date string) error
		Get(ctx context.Context, studentID, date string) (Session, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error)
		QueryByStudent(ctx context.Context, studentID string) ([]Session, error)
		QueryMonth(ctx context.Context, studentID string, year int, month time.Month) ([]Session, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

// Save upserts the session of `studentID` for `ls.Date`; `ls` must have been validated.
func (svc *service) Save(ctx context.Context, studentID string, groupID null.String, ls LogSession) (Session, error) {
	ls.Clean()
	sess := Session{
		StudentID:    studentID,
		GroupID:      groupID,
		Date:         ls.Date,
		ActivityType: ls.ActivityType,
		Duration:     ls.Duration,
		Intensity:    ls.Intensity,
		Notes:        null.NewString(ls.Notes, ls.Notes != ""),
		CreatedAt:    time.Now().UTC(),
	}
	sess, err := svc.repo.UpsertSession(ctx, sess)
	return sess, errors.Wrap(err, "saving session")
}

func (svc *service) Delete(ctx context.Context, studentID, date string) error {
	return svc.repo.DeleteSession(ctx, studentID, date)
}

func (svc *service) Get(ctx context.Context, studentID, date string) (Session, error) {
	return svc.repo.GetSession(ctx, studentID, date)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error) {
	ordering = CleanOrdering(ordering)
	if len(ordering) == 0 {
		ordering = ByDateDesc
	}
	return svc.repo.QuerySessions(ctx, filter, ordering)
}

// QueryByStudent returns every session of a student, most recent first.
func (svc *service) QueryByStudent(ctx context.Context, studentID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, &QueryFilter{StudentIDs: []string{studentID}}, ByDateDesc)
}

// QueryMonth returns the sessions a student logged during the given month, oldest first.
func (svc *service) QueryMonth(ctx context.Context, studentID string, year int, month time.Month) ([]Session, error) {
	from, to := core.MonthRange(year, month)
	filter := &QueryFilter{
		StudentIDs: []string{studentID},
		DateFrom:   from,
		DateTo:     to,
	}
	return svc.repo.QuerySessions(ctx, filter, []core.DBOrdering{{Field: "date", Ascending: true}})
}
