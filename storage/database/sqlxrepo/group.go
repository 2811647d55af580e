package sqlxrepo

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/group"
)

// "groups" is a reserved word in both engines.
const groupsTable = `"groups"`

var (
	groupColumns  = []string{"id", "name", "teacher_id", "school_id", "created_at"}
	memberColumns = []string{"id", "group_id", "student_id", "joined_at"}

	groupOrderingFields  = []string{"name", "created_at"}
	memberOrderingFields = []string{"joined_at"}
)

type (
	groupRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		TeacherID string    `db:"teacher_id"`
		SchoolID  string    `db:"school_id"`
		CreatedAt time.Time `db:"created_at"`
	}

	memberRow struct {
		ID        string    `db:"id"`
		GroupID   string    `db:"group_id"`
		StudentID string    `db:"student_id"`
		JoinedAt  time.Time `db:"joined_at"`
	}
)

type groupRepository struct {
	repository
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(exec core.DBExecutor) *groupRepository {
	return &groupRepository{repository{exec: exec}}
}

func (repo groupRepository) fromRow(row groupRow) group.Group {
	return group.Group{
		ID:        row.ID,
		Name:      row.Name,
		TeacherID: row.TeacherID,
		SchoolID:  row.SchoolID,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo groupRepository) fromMemberRow(row memberRow) group.Member {
	return group.Member{
		ID:        row.ID,
		GroupID:   row.GroupID,
		StudentID: row.StudentID,
		JoinedAt:  row.JoinedAt.UTC(),
	}
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group, exec ...core.DBExecutor) (group.Group, error) {
	grp.ID = uuid.New().String()
	grp.CreatedAt = grp.CreatedAt.UTC()
	qb := psql.Insert(groupsTable).Columns(groupColumns...).
		Values(grp.ID, grp.Name, grp.TeacherID, grp.SchoolID, grp.CreatedAt)
	if _, err := execute(ctx, repo.getExec(exec), qb); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	qb := psql.Select(groupColumns...).From(groupsTable).Where(sq.Eq{"id": id})
	row, err := selectOne[groupRow](ctx, repo.getExec(exec), qb)
	if err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "getting group")
	}
	return repo.fromRow(row), nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Group, error) {
	qb := psql.Select(groupColumns...).From(groupsTable)
	if filter != nil {
		if filter.IDs != nil {
			qb = qb.Where(sq.Eq{"id": filter.IDs})
		}
		if filter.TeacherID != "" {
			qb = qb.Where(sq.Eq{"teacher_id": filter.TeacherID})
		}
		if filter.SchoolID != "" {
			qb = qb.Where(sq.Eq{"school_id": filter.SchoolID})
		}
	}
	qb = orderBy(qb, ordering, groupOrderingFields)

	var rows []groupRow
	if err := selectAll(ctx, repo.getExec(exec), qb, &rows); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	grps := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		grps = append(grps, repo.fromRow(row))
	}
	return grps, nil
}

func (repo groupRepository) CreateMember(ctx context.Context, mbr group.Member, exec ...core.DBExecutor) (group.Member, error) {
	mbr.ID = uuid.New().String()
	mbr.JoinedAt = mbr.JoinedAt.UTC()
	qb := psql.Insert("group_members").Columns(memberColumns...).
		Values(mbr.ID, mbr.GroupID, mbr.StudentID, mbr.JoinedAt)
	if _, err := execute(ctx, repo.getExec(exec), qb); err != nil {
		return group.Member{}, errors.Wrap(err, "inserting member")
	}
	return mbr, nil
}

func memberWhere(filter *group.MemberFilter) sq.And {
	where := sq.And{}
	if filter == nil {
		return where
	}
	if filter.GroupIDs != nil {
		where = append(where, sq.Eq{"group_id": filter.GroupIDs})
	}
	if filter.StudentIDs != nil {
		where = append(where, sq.Eq{"student_id": filter.StudentIDs})
	}
	return where
}

func (repo groupRepository) QueryMembers(ctx context.Context, filter *group.MemberFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Member, error) {
	qb := psql.Select(memberColumns...).From("group_members")
	if where := memberWhere(filter); len(where) > 0 {
		qb = qb.Where(where)
	}
	qb = orderBy(qb, ordering, memberOrderingFields)

	var rows []memberRow
	if err := selectAll(ctx, repo.getExec(exec), qb, &rows); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	mbrs := make([]group.Member, 0, len(rows))
	for _, row := range rows {
		mbrs = append(mbrs, repo.fromMemberRow(row))
	}
	return mbrs, nil
}

// DeleteMembers refuses to run without a filter.
func (repo groupRepository) DeleteMembers(ctx context.Context, filter *group.MemberFilter, exec ...core.DBExecutor) (int, error) {
	where := memberWhere(filter)
	if len(where) == 0 {
		return 0, errors.New("deleting members: empty filter")
	}
	n, err := execute(ctx, repo.getExec(exec), psql.Delete("group_members").Where(where))
	if err != nil {
		return 0, errors.Wrap(err, "deleting members")
	}
	return n, nil
}

func (repo groupRepository) MoveSessions(ctx context.Context, studentID string, fromGroupIDs []string, toGroupID null.String, exec ...core.DBExecutor) (int, error) {
	qb := psql.Update("training_sessions").
		Set("group_id", toGroupID).
		Where(sq.Eq{"student_id": studentID, "group_id": fromGroupIDs})
	n, err := execute(ctx, repo.getExec(exec), qb)
	if err != nil {
		return 0, errors.Wrap(err, "moving sessions")
	}
	return n, nil
}
