package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (cli *commandLine) printRisk(kind string) error {
	ctx := context.Background()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)

	switch kind {
	case "attendance":
		risks, err := cli.risk.AtRiskAttendance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "STUDENT\tNAME\tCLASS\tSESSIONS\tABSENCE RATE\tLATES\tREASON")
		for _, r := range risks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d%%\t%d\t%s\n", r.StudentID, r.Name, r.ClassID, r.Sessions, r.AbsenceRate, r.Lates, r.Reason)
		}
	case "payment":
		risks, err := cli.risk.AtRiskPayment(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "STUDENT\tNAME\tCLASS\tUNPAID MONTHS\tBANNED")
		for _, r := range risks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", r.StudentID, r.Name, r.ClassID, r.UnpaidMonths, r.IsBanned)
		}
	}
	return w.Flush()
}
