package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/ecole/apps/shared"
	"github.com/trezcool/ecole/core/risk"
	"github.com/trezcool/ecole/core/standing"
	"github.com/trezcool/ecole/core/student"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB // nil with the memory engine
	students student.Service
	engine   standing.Engine
	risk     risk.Scorer

	in  *bufio.Reader
	out io.Writer
}

func newCommandLine(app *shared.App, in io.Reader, out io.Writer) *commandLine {
	cli := &commandLine{
		students: app.Students,
		engine:   app.Engine,
		risk:     app.Risk,
		in:       bufio.NewReader(in),
		out:      out,
	}
	if app.DB != nil {
		cli.db = app.DB.DB
	}
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  sweep -rule deadline|arrears - run a ban sweep")
	fmt.Fprintln(cli.out, "  unban -student ID [-yes] - lift a student's ban")
	fmt.Fprintln(cli.out, "  risk -kind attendance|payment - print an at-risk report")
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	sweepCmd := cli.flagSet("sweep")
	sweepRule := sweepCmd.String("rule", "", "The ban rule to apply: deadline or arrears.")

	unbanCmd := cli.flagSet("unban")
	unbanStudent := unbanCmd.String("student", "", "The ID of the student to unban.")
	unbanYes := unbanCmd.Bool("yes", false, "Do not ask for confirmation.")

	riskCmd := cli.flagSet("risk")
	riskKind := riskCmd.String("kind", "", "The report to print: attendance or payment.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "sweep":
		if err := sweepCmd.Parse(args[2:]); err != nil {
			return cli.parseErr(err)
		}
		if *sweepRule != "deadline" && *sweepRule != "arrears" {
			sweepCmd.Usage()
			return errHelp
		}
		return cli.sweep(*sweepRule)
	case "unban":
		if err := unbanCmd.Parse(args[2:]); err != nil {
			return cli.parseErr(err)
		}
		if *unbanStudent == "" {
			unbanCmd.Usage()
			return errHelp
		}
		confirm := !*unbanYes && isTerminalFunc(int(os.Stdin.Fd()))
		return cli.unban(*unbanStudent, confirm)
	case "risk":
		if err := riskCmd.Parse(args[2:]); err != nil {
			return cli.parseErr(err)
		}
		if *riskKind != "attendance" && *riskKind != "payment" {
			riskCmd.Usage()
			return errHelp
		}
		return cli.printRisk(*riskKind)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) parseErr(err error) error {
	if err == flag.ErrHelp {
		return errHelp
	}
	return err
}
