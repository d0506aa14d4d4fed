package main

import (
	"fmt"

	"github.com/spf13/cobra"

	echoapi "github.com/trezcool/cantine/apps/api/echo"
)

func (cli *commandLine) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint API tokens",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "admin NAME",
			Short: "Mint an administrator token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.printToken(cmd, echoapi.NewAdminClaims(cli.conf, args[0]))
			},
		},
		&cobra.Command{
			Use:   "student STUDENT_ID",
			Short: "Mint a token for the student STUDENT_ID",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cli.store.GetAllStudents(cmd.Context())
				if err != nil {
					return err
				}
				for _, st := range s {
					if st.ID == args[0] {
						return cli.printToken(cmd, echoapi.NewStudentClaims(cli.conf, st.ID))
					}
				}
				return fmt.Errorf("student %q not found", args[0])
			},
		},
	)
	return cmd
}

func (cli *commandLine) printToken(cmd *cobra.Command, claims *echoapi.Claims) error {
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
