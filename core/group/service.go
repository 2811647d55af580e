package group

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

var (
	ErrNotFound       = errors.New("group not found")
	ErrNotAStudent    = errors.New("only students can join a group")
	ErrOtherSchool    = errors.New("student and group belong to different schools")
	ErrAlreadyAMember = errors.New("student already belongs to this group")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (Group, error)
		QueryGroups(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Group, error)

		CreateMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
		QueryMembers(ctx context.Context, filter *MemberFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Member, error)
		DeleteMembers(ctx context.Context, filter *MemberFilter, exec ...core.DBExecutor) (int, error)

		// MoveSessions re-attaches the student's sessions logged in `fromGroupIDs` to `toGroupID`.
		MoveSessions(ctx context.Context, studentID string, fromGroupIDs []string, toGroupID null.String, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ng NewGroup, teacher user.User) (Group, error)
		GetByID(ctx context.Context, id string) (Group, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Group, error)
		QueryBySchool(ctx context.Context, schoolID string) ([]Group, error)
		MemberIDs(ctx context.Context, groupID string) ([]string, error)
		StudentGroupID(ctx context.Context, studentID string) (null.String, error)
		AddMember(ctx context.Context, grp Group, student user.User) (Member, error)
		Memberships(ctx context.Context, schoolID string, studentIDs []string) (map[string]string, error)
		Reassign(ctx context.Context, schoolID, studentID string, newGroupID null.String) error
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{
		db:   db,
		repo: repo,
	}
}

// Create adds a group to the teacher's school.
func (svc *service) Create(ctx context.Context, ng NewGroup, teacher user.User) (Group, error) {
	if !teacher.HasSchool() {
		return Group{}, core.ErrNoSchool
	}
	return svc.repo.CreateGroup(ctx, Group{
		Name:      ng.Name,
		TeacherID: teacher.ID,
		SchoolID:  teacher.SchoolID.String,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

// QueryByTeacher returns the teacher's groups, most recent first.
func (svc *service) QueryByTeacher(ctx context.Context, teacherID string) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, &QueryFilter{TeacherID: teacherID}, ByCreatedDesc)
}

// QueryBySchool returns the school's groups sorted by name.
func (svc *service) QueryBySchool(ctx context.Context, schoolID string) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, &QueryFilter{SchoolID: schoolID}, ByNameAsc)
}

// MemberIDs returns the distinct students of a group, in joining order.
func (svc *service) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	mbrs, err := svc.repo.QueryMembers(ctx, &MemberFilter{GroupIDs: []string{groupID}}, ByJoinedAsc)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	seen := make(map[string]struct{}, len(mbrs))
	ids := make([]string, 0, len(mbrs))
	for _, mbr := range mbrs {
		if _, ok := seen[mbr.StudentID]; ok {
			continue
		}
		seen[mbr.StudentID] = struct{}{}
		ids = append(ids, mbr.StudentID)
	}
	return ids, nil
}

// StudentGroupID returns the group the student joined first, null when they belong to none.
func (svc *service) StudentGroupID(ctx context.Context, studentID string) (null.String, error) {
	mbrs, err := svc.repo.QueryMembers(ctx, &MemberFilter{StudentIDs: []string{studentID}}, ByJoinedAsc)
	if err != nil {
		return null.String{}, errors.Wrap(err, "querying memberships")
	}
	if len(mbrs) == 0 {
		return null.String{}, nil
	}
	return null.StringFrom(mbrs[0].GroupID), nil
}

// AddMember adds a student of the group's school to the group.
func (svc *service) AddMember(ctx context.Context, grp Group, student user.User) (Member, error) {
	if !student.IsStudent() {
		return Member{}, ErrNotAStudent
	}
	if student.SchoolID.String != grp.SchoolID {
		return Member{}, ErrOtherSchool
	}

	mbrs, err := svc.repo.QueryMembers(ctx, &MemberFilter{GroupIDs: []string{grp.ID}, StudentIDs: []string{student.ID}}, nil)
	if err != nil {
		return Member{}, errors.Wrap(err, "querying memberships")
	}
	if len(mbrs) > 0 {
		return Member{}, ErrAlreadyAMember
	}
	return svc.repo.CreateMember(ctx, Member{
		GroupID:   grp.ID,
		StudentID: student.ID,
		JoinedAt:  time.Now().UTC(),
	})
}

// Memberships maps each student to the group of the school they joined last.
// Students without a group are left out.
func (svc *service) Memberships(ctx context.Context, schoolID string, studentIDs []string) (map[string]string, error) {
	memberships := make(map[string]string, len(studentIDs))
	if len(studentIDs) == 0 {
		return memberships, nil
	}

	groupIDs, err := svc.schoolGroupIDs(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return memberships, nil
	}

	mbrs, err := svc.repo.QueryMembers(ctx, &MemberFilter{GroupIDs: groupIDs, StudentIDs: studentIDs}, ByJoinedDesc)
	if err != nil {
		return nil, errors.Wrap(err, "querying memberships")
	}
	for _, mbr := range mbrs {
		if _, ok := memberships[mbr.StudentID]; !ok {
			memberships[mbr.StudentID] = mbr.GroupID
		}
	}
	return memberships, nil
}

// Reassign moves a student to `newGroupID` (or out of every group when null), in one transaction:
// memberships of the school's groups are replaced and the student's sessions follow them.
func (svc *service) Reassign(ctx context.Context, schoolID, studentID string, newGroupID null.String) error {
	groupIDs, err := svc.schoolGroupIDs(ctx, schoolID)
	if err != nil {
		return err
	}
	if newGroupID.Valid && !core.ContainsString(groupIDs, newGroupID.String) {
		return ErrNotFound
	}

	return core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if len(groupIDs) > 0 {
			filter := &MemberFilter{GroupIDs: groupIDs, StudentIDs: []string{studentID}}
			if _, err := svc.repo.DeleteMembers(ctx, filter, tx); err != nil {
				return errors.Wrap(err, "deleting memberships")
			}
		}
		if newGroupID.Valid {
			mbr := Member{
				GroupID:   newGroupID.String,
				StudentID: studentID,
				JoinedAt:  time.Now().UTC(),
			}
			if _, err := svc.repo.CreateMember(ctx, mbr, tx); err != nil {
				return errors.Wrap(err, "creating membership")
			}
		}
		if len(groupIDs) > 0 {
			if _, err := svc.repo.MoveSessions(ctx, studentID, groupIDs, newGroupID, tx); err != nil {
				return errors.Wrap(err, "moving sessions")
			}
		}
		return nil
	})
}

func (svc *service) schoolGroupIDs(ctx context.Context, schoolID string) ([]string, error) {
	grps, err := svc.repo.QueryGroups(ctx, &QueryFilter{SchoolID: schoolID}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying school groups")
	}
	ids := make([]string, 0, len(grps))
	for _, grp := range grps {
		ids = append(ids, grp.ID)
	}
	return ids, nil
}
