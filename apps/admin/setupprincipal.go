package main

import (
	"context"
	"errors"
	"time"

	"github.com/madrasahapp/madrasah/core"
	"github.com/madrasahapp/madrasah/core/user"
)

var errPrincipalExists = errors.New("a principal account already exists")

// setupPrincipal bootstraps the one principal account. It refuses to run
// when a principal already exists; principals are never created over the API.
func (cli *commandLine) setupPrincipal(email, phone, firstName, lastName, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	phone = core.CleanString(phone)

	_, total, err := cli.usrRepo.FilterUsers(ctx, user.QueryFilter{Role: user.RolePrincipal})
	if err != nil {
		return err
	}
	if total > 0 {
		return errPrincipalExists
	}

	if err = cli.usrRepo.CheckUniqueness(ctx, email, phone, ""); err != nil {
		return err
	}

	now := time.Now().UTC()
	usr := user.User{
		Email:     email,
		Phone:     phone,
		Role:      user.RolePrincipal,
		FirstName: core.CleanString(firstName),
		LastName:  core.CleanString(lastName),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.CreateUser(ctx, usr)
	return err
}
