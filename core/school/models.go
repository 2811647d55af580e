package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
)

type School struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Location   null.String `json:"location"`
	InviteCode string      `json:"invite_code"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Location string `json:"location" validate:"max=120"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Location = core.CleanString(ns.Location)
	return validate.Struct(ns)
}

// GetFilter identifies a single School: the first non-empty field is used.
type GetFilter struct {
	ID         string
	InviteCode string
}
