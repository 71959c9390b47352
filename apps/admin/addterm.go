package main

import (
	"context"
	"fmt"

	"github.com/aulavirtual/aula/core"
	termreg "github.com/aulavirtual/aula/core/term"
)

// addTerm registers a new term. New terms start closed; use activateterm to
// make one current.
func (cli *commandLine) addTerm(name string) error {
	ctx := context.Background()
	t, err := cli.termSvc.Create(ctx, termreg.NewTerm{Name: core.CleanString(name)})
	if err != nil {
		return err
	}
	fmt.Printf("term %q created with id %s\n", t.Name, t.ID)
	return nil
}

// activateTerm switches the active term to the given one.
func (cli *commandLine) activateTerm(id string) error {
	return cli.termSvc.SetActive(context.Background(), id)
}
