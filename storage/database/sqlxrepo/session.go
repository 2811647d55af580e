package sqlxrepo

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/training"
)

var sessionColumns = []string{
	"id", "student_id", "group_id", "date", "activity_type", "duration", "intensity", "notes", "created_at",
}

// a student logs at most one session a day: a second one replaces the first
const upsertSessionSuffix = `ON CONFLICT (student_id, date) DO UPDATE SET
	group_id = EXCLUDED.group_id,
	activity_type = EXCLUDED.activity_type,
	duration = EXCLUDED.duration,
	intensity = EXCLUDED.intensity,
	notes = EXCLUDED.notes`

type sessionRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	GroupID      null.String `db:"group_id"`
	Date         string      `db:"date"`
	ActivityType string      `db:"activity_type"`
	Duration     int         `db:"duration"`
	Intensity    int         `db:"intensity"`
	Notes        null.String `db:"notes"`
	CreatedAt    time.Time   `db:"created_at"`
}

type sessionRepository struct {
	repository
}

var _ training.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{repository{exec: exec}}
}

func (repo sessionRepository) fromRow(row sessionRow) training.Session {
	return training.Session{
		ID:           row.ID,
		StudentID:    row.StudentID,
		GroupID:      row.GroupID,
		Date:         row.Date,
		ActivityType: row.ActivityType,
		Duration:     row.Duration,
		Intensity:    row.Intensity,
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func (repo sessionRepository) UpsertSession(ctx context.Context, sess training.Session, exec ...core.DBExecutor) (training.Session, error) {
	exe := repo.getExec(exec)
	qb := psql.Insert("training_sessions").Columns(sessionColumns...).
		Values(
			uuid.New().String(), sess.StudentID, sess.GroupID, sess.Date, sess.ActivityType,
			sess.Duration, sess.Intensity, sess.Notes, sess.CreatedAt.UTC(),
		).
		Suffix(upsertSessionSuffix)
	if _, err := execute(ctx, exe, qb); err != nil {
		return training.Session{}, errors.Wrap(err, "upserting session")
	}
	return repo.GetSession(ctx, sess.StudentID, sess.Date, exe)
}

func (repo sessionRepository) QuerySessions(ctx context.Context, filter *training.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]training.Session, error) {
	qb := psql.Select(sessionColumns...).From("training_sessions")
	if filter != nil {
		if filter.StudentIDs != nil {
			qb = qb.Where(sq.Eq{"student_id": filter.StudentIDs})
		}
		if filter.GroupIDs != nil {
			qb = qb.Where(sq.Eq{"group_id": filter.GroupIDs})
		}
		if filter.ActivityTypes != nil {
			qb = qb.Where(sq.Eq{"activity_type": filter.ActivityTypes})
		}
		if filter.DateFrom != "" {
			qb = qb.Where(sq.GtOrEq{"date": filter.DateFrom})
		}
		if filter.DateTo != "" {
			qb = qb.Where(sq.LtOrEq{"date": filter.DateTo})
		}
	}
	qb = orderBy(qb, ordering, training.OrderingFields)

	var rows []sessionRow
	if err := selectAll(ctx, repo.getExec(exec), qb, &rows); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]training.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, repo.fromRow(row))
	}
	return sessions, nil
}

func (repo sessionRepository) GetSession(ctx context.Context, studentID, date string, exec ...core.DBExecutor) (training.Session, error) {
	qb := psql.Select(sessionColumns...).From("training_sessions").
		Where(sq.Eq{"student_id": studentID, "date": date})
	row, err := selectOne[sessionRow](ctx, repo.getExec(exec), qb)
	if err != nil {
		return training.Session{}, trapNoRowsErr(err, training.ErrNotFound, "getting session")
	}
	return repo.fromRow(row), nil
}

func (repo sessionRepository) DeleteSession(ctx context.Context, studentID, date string, exec ...core.DBExecutor) error {
	qb := psql.Delete("training_sessions").Where(sq.Eq{"student_id": studentID, "date": date})
	n, err := execute(ctx, repo.getExec(exec), qb)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if n == 0 {
		return training.ErrNotFound
	}
	return nil
}
