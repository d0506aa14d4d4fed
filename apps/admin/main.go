package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
	logsvc "github.com/trezcool/cantine/services/logger"
	"github.com/trezcool/cantine/storage/database"
	inmemdb "github.com/trezcool/cantine/storage/database/inmem"
	sqlxrepos "github.com/trezcool/cantine/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	cli := &commandLine{conf: conf, out: os.Stdout}

	// set up DB
	if conf.Database.Engine == database.EngineMemory {
		db := inmemdb.Open()
		cli.store = inmemdb.NewSelectionStore(db)
		cli.meals = meal.NewService(inmemdb.NewMealRepository(db))
	} else {
		var db *sqlx.DB
		if db, err = database.Open(conf); err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer db.Close()
		cli.db = db
		cli.store = sqlxrepos.NewSelectionStore(db)
		cli.meals = meal.NewService(sqlxrepos.NewMealRepository(db))
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin %v", os.Args[1:]), err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}
