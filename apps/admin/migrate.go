package main

import (
	"github.com/aulavirtual/aula/storage/database"
)

var migrateRunFunc = database.Migrate // mockable

// migrate applies all pending schema migrations.
func (cli *commandLine) migrate() error {
	return migrateRunFunc(cli.conf)
}
