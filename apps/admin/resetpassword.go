package main

import (
	"context"
	"strings"
	"time"

	"github.com/madrasahapp/madrasah/core"
	"github.com/madrasahapp/madrasah/core/user"
)

func (cli *commandLine) resetPassword(identifier, pwd string) error {
	ctx := context.Background()

	var filter user.GetFilter
	if strings.Contains(identifier, "@") {
		filter.Email = core.CleanString(identifier, true /* lower */)
	} else {
		filter.Phone = core.CleanString(identifier)
	}

	usr, err := cli.usrRepo.GetUser(ctx, filter)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	return err
}
