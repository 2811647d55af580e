package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

// addUser updates or creates the user.User owning email.
func (cli *commandLine) addUser(name, email, role, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !core.ContainsString(user.AllRoles, role) {
		return errors.Errorf("unknown role %q", role)
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}
	usr.Name = name
	usr.Role = role
	usr.IsAdmin = isAdmin
	usr.UpdatedAt = time.Now().UTC()
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
