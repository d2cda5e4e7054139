package main

import (
	"fmt"
	"os"

	rewardhttp "sponsordesk/contexts/sponsor-review/reward-allocation/transport/http"
	"sponsordesk/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the reward allocation tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.CLIApp) error {
				if err := app.Repository.AutoMigrate(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "reward allocation schema is up to date")
				return err
			})
		},
	}
}

func newPrecheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "precheck <listing-id>",
		Short: "Report whether a listing's winners can be announced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.CLIApp) error {
				resp, err := app.Module.Handler.PrecheckHandler(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var winnerID string
	cmd := &cobra.Command{
		Use:   "publish <listing-id>",
		Short: "Announce a listing's winners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *bootstrap.CLIApp) error {
				resp, err := app.Module.Handler.PublishHandler(cmd.Context(), args[0], opts.actorID, rewardhttp.PublishRequest{
					WinnerCandidateID: winnerID,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&winnerID, "winner", "", "project listings only: candidate that takes the single reward")
	return cmd
}

func newRejectBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		ids            []string
		spam           bool
		chunkSize      int
		idempotencyKey string
	)
	cmd := &cobra.Command{
		Use:   "reject-batch <listing-id>",
		Short: "Reject or mark spam many candidates in confirmed chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transition := "reject"
			if spam {
				transition = "spam"
			}
			return withApp(opts, func(app *bootstrap.CLIApp) error {
				resp, err := app.Module.Handler.BatchHandler(cmd.Context(), args[0], opts.actorID, idempotencyKey, rewardhttp.BatchRequest{
					Transition:   transition,
					CandidateIDs: ids,
					ChunkSize:    chunkSize,
				})
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
				if resp.Halted {
					return fmt.Errorf("batch halted: %s", resp.Summary)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "candidate ids, comma separated")
	cmd.Flags().BoolVar(&spam, "spam", false, "mark spam instead of rejecting")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "candidates per confirmed chunk")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "replay key for safe retries")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func newExportWinnersCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-winners <listing-id>",
		Short: "Write the winners sheet as an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := out
			if path == "" {
				path = args[0] + "-winners.xlsx"
			}
			return withApp(opts, func(app *bootstrap.CLIApp) error {
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := app.Module.Handler.ExportWinnersHandler(cmd.Context(), args[0], file); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "winners written to %s\n", path)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, defaults to <listing-id>-winners.xlsx")
	return cmd
}
