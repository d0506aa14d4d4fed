package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/services/backend"
)

type importFlags struct {
	remote string
	token  string
}

func (cli *commandLine) importCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import students or meal selections from a text file, one row per line",
	}
	cmd.PersistentFlags().StringVar(&flags.remote, "remote", "", "import through the API rooted at this URL instead of the database (eg. https://cantine.school/api)")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "admin token used with --remote")

	cmd.AddCommand(cli.importStudentsCmd(&flags), cli.importSelectionsCmd(&flags))
	return cmd
}

func (cli *commandLine) importStudentsCmd(flags *importFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "students FILE",
		Short: "Create one student per `FULL_NAME CLASS [EXTERNAL_LOGIN_ID]` row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading import file")
			}

			out := cmd.OutOrStdout()
			rc := selection.NewReconciler(cli.storeFor(flags))
			job, err := rc.ImportStudents(cmd.Context(), string(raw), progressPrinter(out))
			return cli.report(out, args[0], job, err)
		},
	}
}

func (cli *commandLine) importSelectionsCmd(flags *importFlags) *cobra.Command {
	var mealID, method string

	cmd := &cobra.Command{
		Use:   "selections FILE",
		Short: "Assign a meal type per `IDENTIFIER A|B` row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.remote == "" && mealID != "" {
				if _, err := cli.meals.GetByID(cmd.Context(), mealID); err != nil {
					return errors.Wrapf(err, "meal %q", mealID)
				}
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading import file")
			}

			out := cmd.OutOrStdout()
			rc := selection.NewReconciler(cli.storeFor(flags))
			res, err := rc.ImportSelections(cmd.Context(), string(raw), mealID, selection.Method(method), progressPrinter(out))
			if res == nil {
				return err
			}
			if rerr := cli.report(out, args[0], res.Job, err); rerr != nil {
				return rerr
			}
			_, _ = fmt.Fprintf(out, "meal %s: %d A, %d B\n", mealID, len(res.Selections.A), len(res.Selections.B))
			return nil
		},
	}
	cmd.Flags().StringVar(&mealID, "meal", "", "id of the meal (required)")
	cmd.Flags().StringVar(&method, "method", string(selection.MethodStudentID), "how rows identify students: student_id or external_login_id")
	return cmd
}

func (cli *commandLine) storeFor(flags *importFlags) selection.Store {
	if flags.remote != "" {
		return backend.NewClient(flags.remote, flags.token, nil)
	}
	return cli.store
}

func progressPrinter(out io.Writer) selection.ProgressFunc {
	return func(p selection.Progress) {
		_, _ = fmt.Fprintf(out, "\r%d/%d rows (ok %d, failed %d)", p.Current, p.Total, p.Success, p.Failed)
		if p.Current == p.Total {
			_, _ = fmt.Fprintln(out)
		}
	}
}

// report prints the failures of job and saves its retry payload next to file.
func (cli *commandLine) report(out io.Writer, file string, job *selection.ImportJob, err error) error {
	if job == nil {
		return err
	}
	for _, f := range job.Failures {
		_, _ = fmt.Fprintf(out, "  row %d %q: %s\n", f.Line, f.Row, f.Reason)
	}

	failedFile := file + ".failed"
	if payload := job.RetryPayload(); payload != "" {
		if werr := os.WriteFile(failedFile, []byte(payload+"\n"), 0o644); werr != nil {
			return errors.Wrap(werr, "writing failed rows")
		}
		_, _ = fmt.Fprintf(out, "%d rows to retry written to %s\n", job.Failed+len(job.Unprocessed), failedFile)
	} else if rmErr := os.Remove(failedFile); rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.Wrap(rmErr, "removing stale failed rows")
	}
	_, _ = fmt.Fprintf(out, "imported %d/%d rows\n", job.Success, job.Total)
	return err
}
