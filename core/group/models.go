package group

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
)

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id"`
	SchoolID  string    `json:"school_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Member is a student's membership of a group.
type Member struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	StudentID string    `json:"student_id"`
	JoinedAt  time.Time `json:"joined_at"` // UTC
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

// AddMember contains the student to add to a group.
type AddMember struct {
	StudentID string `json:"student_id" validate:"required"`
}

func (am *AddMember) Validate(validate *validator.Validate) error {
	am.StudentID = core.CleanString(am.StudentID)
	return validate.Struct(am)
}

// Reassignment moves a student to another group of their school, or out of every group when GroupID is null.
type Reassignment struct {
	GroupID null.String `json:"group_id"`
}

// QueryFilter selects groups; every non-empty field is AND-ed.
type QueryFilter struct {
	IDs       []string
	TeacherID string
	SchoolID  string
}

// MemberFilter selects memberships; every non-empty field is AND-ed.
type MemberFilter struct {
	GroupIDs   []string
	StudentIDs []string
}

var (
	ByCreatedDesc = []core.DBOrdering{{Field: "created_at"}}
	ByNameAsc     = []core.DBOrdering{{Field: "name", Ascending: true}}
	ByJoinedAsc   = []core.DBOrdering{{Field: "joined_at", Ascending: true}}
	ByJoinedDesc  = []core.DBOrdering{{Field: "joined_at"}}
)
