package main

import (
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/selection"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf  *core.Config
	db    *sqlx.DB // nil with the memory engine
	store selection.Store
	meals selection.MealFinder
	out   io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.importCmd(),
		cli.tokenCmd(),
	)
	return root
}

// run executes args, args[0] being the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root.Execute()
}
