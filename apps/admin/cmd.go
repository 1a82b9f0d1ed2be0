package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/madrasahapp/madrasah/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrRepo user.Repository
	pingDB  func(ctx context.Context) error
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  setupprincipal -email EMAIL -firstname NAME -lastname NAME [-phone PHONE] - create the principal account")
	fmt.Println("  resetpassword -identifier EMAIL|PHONE - reset user's password")
	fmt.Println("  checkdb - check database connectivity")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	setupPrincipalCmd := flag.NewFlagSet("setupprincipal", flag.ExitOnError)
	setupPrincipalEmail := setupPrincipalCmd.String("email", "", "The principal's email. The password will be prompted next.")
	setupPrincipalFirstName := setupPrincipalCmd.String("firstname", "", "The principal's first name.")
	setupPrincipalLastName := setupPrincipalCmd.String("lastname", "", "The principal's last name.")
	setupPrincipalPhone := setupPrincipalCmd.String("phone", "", "The principal's phone number (optional).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordIdent := resetPasswordCmd.String("identifier", "", "The user's email or phone number. The password will be prompted next.")

	switch args[1] {
	case "setupprincipal":
		if err := setupPrincipalCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setupPrincipalEmail == "" || *setupPrincipalFirstName == "" || *setupPrincipalLastName == "" {
			setupPrincipalCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				setupPrincipalCmd.Usage()
			}
			return err
		}
		return cli.setupPrincipal(*setupPrincipalEmail, *setupPrincipalPhone, *setupPrincipalFirstName, *setupPrincipalLastName, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordIdent == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordIdent, pwd)
	case "checkdb":
		return cli.checkDB()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
