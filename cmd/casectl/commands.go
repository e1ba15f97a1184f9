package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/lifecycle"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/reconciler"
)

const commandTimeout = 5 * time.Minute

// session is an orchestrator connected to the configured database
type session struct {
	o     *lifecycle.Orchestrator
	close func()
}

func open() (*session, error) {
	cfg := config.New()
	if cfg.DBDriver != config.DriverMongo {
		return nil, errors.Newf("casectl needs DB_DRIVER=%s, got %q", config.DriverMongo, cfg.DBDriver)
	}
	client, err := databases.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create database client")
	}
	if err := client.Connect(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	stores := handlers.MongoStores(databases.NewDatabase(cfg, client))

	// nothing run from here schedules jobs; the queue only satisfies the orchestrator
	queue := jobs.NewTimerQueue()
	o := lifecycle.New(lifecycle.Deps{
		Cases:         stores.Cases,
		Assignments:   stores.Assignments,
		Verifications: stores.Verifications,
		Scheduling:    stores.Scheduling,
		Users:         stores.Users,
		Queue:         queue,
	}, lifecycle.Options{ReconcileOnRead: false})

	return &session{o: o, close: func() {
		_ = queue.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}}, nil
}

func withSession(fn func(ctx context.Context, s *session) error) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer s.close()
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx, s)
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <caseId>",
		Short: "Repair one case against its assignment records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				res, err := s.o.ReconcileOne(ctx, identity.System, args[0])
				if err != nil {
					return err
				}
				printRepair(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func reconcileAllCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "reconcile-all",
		Short: "Sweep every lawyer-bound case and repair what can be repaired",
		Long: `Walks every case whose status requires a current lawyer and reconciles it.
Use --user to limit the sweep to cases owned by or assigned to one user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				res, err := s.o.ReconcileAll(ctx, identity.System, reconciler.Scope{UserID: userID})
				if err != nil {
					return err
				}
				printSweep(cmd.OutOrStdout(), res)
				if res.FailedCount > 0 {
					return errors.Newf("%d cases failed to reconcile", res.FailedCount)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only sweep cases of this user")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <caseId>",
		Short: "Run verification on a case now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				v, err := s.o.VerifyCase(ctx, identity.System, args[0])
				if err != nil {
					return err
				}
				printVerification(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <userId> <userType>",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := api.IssueToken(secret, args[0], args[1], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func printRepair(w io.Writer, res reconciler.RepairResult) {
	state := color.New(color.FgGreen).Sprint("consistent")
	if !res.Consistent {
		state = color.New(color.FgRed).Sprint("inconsistent")
	}
	fmt.Fprintf(w, "Case %s: %s\n", res.CaseID, state)
	if res.Lawyer != "" {
		fmt.Fprintf(w, "  lawyer: %s\n", res.Lawyer)
	}
	if !res.Fixed {
		fmt.Fprintln(w, "  nothing to repair")
		return
	}
	for _, action := range res.Actions {
		fmt.Fprintf(w, "  %s %s\n", color.New(color.FgYellow).Sprint("fixed"), action)
	}
}

func printSweep(w io.Writer, res reconciler.SweepResult) {
	fmt.Fprintf(w, "Checked %d cases\n", res.TotalChecked)
	fmt.Fprintf(w, "  %s %d\n", color.New(color.FgGreen).Sprint("fixed:  "), res.FixedCount)
	fmt.Fprintf(w, "  %s %d\n", color.New(color.FgYellow).Sprint("unfixed:"), res.UnfixedCount)
	fmt.Fprintf(w, "  %s %d\n", color.New(color.FgRed).Sprint("failed: "), res.FailedCount)
}

func printVerification(w io.Writer, v *models.Verification) {
	status := color.New(color.FgGreen).Sprint(v.Status)
	if v.Status == models.VerificationRejected {
		status = color.New(color.FgRed).Sprint(v.Status)
	}
	fmt.Fprintf(w, "Case %s: %s\n", v.CaseID, status)
	for _, issue := range v.Issues {
		fmt.Fprintf(w, "  %s: %s\n", issue.Field, issue.Message)
	}
	if len(v.Issues) == 0 {
		fmt.Fprintln(w, "  no issues")
	}
}
