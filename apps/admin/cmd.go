package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/aulavirtual/aula/core"
	termreg "github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf    *core.Config
	usrSvc  *user.Service
	termSvc *termreg.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -email EMAIL -role ROLE - create a user; the password is prompted")
	fmt.Println("  addterm -name NAME - register a new term (created closed)")
	fmt.Println("  activateterm -id ID - make a term the active one; the previous active term closes")
	fmt.Println("  migrate - apply pending database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of: admin, teacher, student.")

	addTermCmd := flag.NewFlagSet("addterm", flag.ExitOnError)
	addTermName := addTermCmd.String("name", "", "The term's display name, e.g. \"2026-1\".")

	activateTermCmd := flag.NewFlagSet("activateterm", flag.ExitOnError)
	activateTermID := activateTermCmd.String("id", "", "The id of the term to activate.")

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, string(pwd), *addUserRole)
	case "addterm":
		if err := addTermCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTermName == "" {
			addTermCmd.Usage()
			return errHelp
		}
		return cli.addTerm(*addTermName)
	case "activateterm":
		if err := activateTermCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *activateTermID == "" {
			activateTermCmd.Usage()
			return errHelp
		}
		return cli.activateTerm(*activateTermID)
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.migrate()
	default:
		cli.printUsage()
		return errHelp
	}
}
