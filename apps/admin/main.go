package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/ecole/apps/shared"
	"github.com/trezcool/ecole/core"
	logsvc "github.com/trezcool/ecole/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	app, err := shared.NewApp(conf, logger, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up application: %v", err), err)
	}

	cli := newCommandLine(app, os.Stdin, os.Stdout)
	err = cli.run(os.Args)
	_ = app.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
