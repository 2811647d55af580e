package main

import (
	"context"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

// addSchool creates a school.School administered by the user owning adminEmail.
func (cli *commandLine) addSchool(name, location, adminEmail string) (school.School, error) {
	ctx := context.Background()
	admin, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(adminEmail, true /* lower */)})
	if err != nil {
		return school.School{}, err
	}
	ns := school.NewSchool{Name: core.CleanString(name), Location: core.CleanString(location)}
	sch, _, err := cli.schSvc.Create(ctx, ns, admin)
	return sch, err
}
