package main

import (
	"context"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/user"
)

// addUser provisions an account and creates the matching user record.
func (cli *commandLine) addUser(name, email, pwd, role string) error {
	ctx := context.Background()
	nu := user.NewUser{
		Name:     core.CleanString(name),
		Email:    core.CleanString(email, true /* lower */),
		Password: pwd,
		Role:     core.CleanString(role, true /* lower */),
	}
	_, err := cli.usrSvc.Create(ctx, nu)
	return err
}
