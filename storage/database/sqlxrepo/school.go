package sqlxrepo

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/school"
)

var schoolColumns = []string{"id", "name", "location", "invite_code", "created_at"}

type schoolRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Location   null.String `db:"location"`
	InviteCode string      `db:"invite_code"`
	CreatedAt  time.Time   `db:"created_at"`
}

type schoolRepository struct {
	repository
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{repository{exec: exec}}
}

func (repo schoolRepository) fromRow(row schoolRow) school.School {
	return school.School{
		ID:         row.ID,
		Name:       row.Name,
		Location:   row.Location,
		InviteCode: row.InviteCode,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	sch.ID = uuid.New().String()
	sch.CreatedAt = sch.CreatedAt.UTC()
	qb := psql.Insert("schools").Columns(schoolColumns...).
		Values(sch.ID, sch.Name, sch.Location, sch.InviteCode, sch.CreatedAt)
	if _, err := execute(ctx, repo.getExec(exec), qb); err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.School, error) {
	qb := psql.Select(schoolColumns...).From("schools")
	switch {
	case filter.ID != "":
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.InviteCode != "":
		qb = qb.Where("UPPER(invite_code) = UPPER(?)", filter.InviteCode)
	default:
		return school.School{}, school.ErrNotFound
	}

	row, err := selectOne[schoolRow](ctx, repo.getExec(exec), qb)
	if err != nil {
		return school.School{}, trapNoRowsErr(err, school.ErrNotFound, "getting school")
	}
	return repo.fromRow(row), nil
}

func (repo schoolRepository) SearchSchools(ctx context.Context, term string, limit int, exec ...core.DBExecutor) ([]school.School, error) {
	val := likeValue(term)
	qb := psql.Select(schoolColumns...).From("schools").
		Where(sq.Or{
			sq.Expr("LOWER(name) LIKE LOWER(?)", val),
			sq.Expr("LOWER(invite_code) LIKE LOWER(?)", val),
		}).
		OrderBy("name ASC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}

	var rows []schoolRow
	if err := selectAll(ctx, repo.getExec(exec), qb, &rows); err != nil {
		return nil, errors.Wrap(err, "searching schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, repo.fromRow(row))
	}
	return schools, nil
}
