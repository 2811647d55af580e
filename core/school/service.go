package school

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

const (
	SearchMinLen = 3
	SearchLimit  = 10

	inviteCodeAttempts = 5
)

var (
	ErrNotFound       = errors.New("school not found")
	errInviteCodeUsed = errors.New("could not generate a unique invite code")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		GetSchool(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (School, error)
		// SearchSchools does a case-insensitive match of term on the name or the invite code.
		SearchSchools(ctx context.Context, term string, limit int, exec ...core.DBExecutor) ([]School, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ns NewSchool, creator user.User) (School, user.User, error)
		GetByID(ctx context.Context, id string) (School, error)
		Search(ctx context.Context, term string) ([]School, error)
		Join(ctx context.Context, usr user.User, schoolID string) (School, user.User, error)
	}

	service struct {
		db     core.DB
		repo   Repository
		usrSvc user.ServiceInterface
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, usrSvc user.ServiceInterface) *service {
	return &service{
		db:     db,
		repo:   repo,
		usrSvc: usrSvc,
	}
}

// Create inserts the school and makes `creator` its admin, in one transaction.
func (svc *service) Create(ctx context.Context, ns NewSchool, creator user.User) (School, user.User, error) {
	var sch School
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		code, err := svc.uniqueInviteCode(ctx, tx)
		if err != nil {
			return err
		}

		sch, err = svc.repo.CreateSchool(ctx, School{
			Name:       ns.Name,
			Location:   null.NewString(ns.Location, ns.Location != ""),
			InviteCode: code,
			CreatedAt:  time.Now().UTC(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating school")
		}

		creator, err = svc.usrSvc.JoinSchool(ctx, creator, sch.ID, true /* asAdmin */, tx)
		return errors.Wrap(err, "joining school")
	})
	if err != nil {
		return School{}, user.User{}, err
	}
	return sch, creator, nil
}

// uniqueInviteCode generates invite codes until one is not taken yet.
func (svc *service) uniqueInviteCode(ctx context.Context, exec core.DBExecutor) (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code, err := newInviteCode()
		if err != nil {
			return "", errors.Wrap(err, "generating invite code")
		}
		_, err = svc.repo.GetSchool(ctx, GetFilter{InviteCode: code}, exec)
		if errors.Cause(err) == ErrNotFound {
			return code, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "checking invite code")
		}
	}
	return "", errInviteCodeUsed
}

func (svc *service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchool(ctx, GetFilter{ID: id})
}

// Search returns at most SearchLimit schools; terms shorter than SearchMinLen match nothing.
func (svc *service) Search(ctx context.Context, term string) ([]School, error) {
	term = core.CleanString(term)
	if len([]rune(term)) < SearchMinLen {
		return []School{}, nil
	}
	return svc.repo.SearchSchools(ctx, term, SearchLimit)
}

// Join sets the school of `usr`.
func (svc *service) Join(ctx context.Context, usr user.User, schoolID string) (School, user.User, error) {
	sch, err := svc.GetByID(ctx, schoolID)
	if err != nil {
		return School{}, user.User{}, err
	}
	usr, err = svc.usrSvc.JoinSchool(ctx, usr, sch.ID, false /* asAdmin */)
	if err != nil {
		return School{}, user.User{}, errors.Wrap(err, "joining school")
	}
	return sch, usr, nil
}
