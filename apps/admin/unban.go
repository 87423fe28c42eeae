package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errAborted = errors.New("aborted")

func (cli *commandLine) unban(id string, confirm bool) error {
	ctx := context.Background()

	st, err := cli.students.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !st.IsBanned() {
		fmt.Fprintf(cli.out, "%s (%s) is not banned\n", st.FullName(), st.ID)
		return nil
	}

	if confirm {
		fmt.Fprintf(cli.out, "Unban %s (%s), banned for %q? [y/N] ", st.FullName(), st.ID, st.Ban.Reason)
		answer, _ := cli.in.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return errAborted
		}
	}

	if _, err = cli.engine.Unban(ctx, st.ID); err != nil {
		return err
	}
	cli.risk.Invalidate(ctx)
	fmt.Fprintf(cli.out, "%s (%s) unbanned\n", st.FullName(), st.ID)
	return nil
}
