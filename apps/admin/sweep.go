package main

import (
	"context"
	"fmt"

	"github.com/trezcool/ecole/core/standing"
)

// sweep runs a ban rule over every student. Meant to be scheduled by cron.
func (cli *commandLine) sweep(rule string) error {
	ctx := context.Background()

	var report standing.BatchReport
	var err error
	switch rule {
	case "deadline":
		report, err = cli.engine.RunDeadlineBan(ctx)
	case "arrears":
		report, err = cli.engine.RunArrearsBan(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s sweep (%s): %d processed, %d banned, %d warned, %d skipped, %d failed\n",
		report.Rule, report.Month, report.Processed, report.Banned, report.Warned, report.Skipped, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Fprintf(cli.out, "  %s: %s\n", f.StudentID, f.Error)
	}
	if report.Banned > 0 {
		cli.risk.Invalidate(ctx)
	}
	return nil
}
