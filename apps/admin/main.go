package main

import (
	"log"
	"os"

	"github.com/aulavirtual/aula/core"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
	emailsvc "github.com/aulavirtual/aula/services/email"
	identitysvc "github.com/aulavirtual/aula/services/identity"
	logsvc "github.com/aulavirtual/aula/services/logger"
	"github.com/aulavirtual/aula/storage/database"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	defer db.Close()

	idp := identitysvc.NewLocalProvider(database.NewAccountRepository(db))
	mailSvc := emailsvc.NewConsoleService(conf)

	// start CLI
	cli := commandLine{
		conf:    conf,
		usrSvc:  user.NewService(database.NewUserRepository(db), idp, mailSvc, conf),
		termSvc: term.NewService(database.NewTermRepository(db), logger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
