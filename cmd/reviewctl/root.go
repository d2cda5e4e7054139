package main

import (
	"encoding/json"
	"io"

	"sponsordesk/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	actorID    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Operate sponsor review and reward allocation from the shell",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config-file", "", "optional YAML config file")
	cmd.PersistentFlags().StringVar(&opts.actorID, "actor", "reviewctl", "actor id recorded on events")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newPrecheckCmd(opts),
		newPublishCmd(opts),
		newRejectBatchCmd(opts),
		newExportWinnersCmd(opts),
	)
	return cmd
}

// withApp builds the postgres-backed wiring for one command run.
func withApp(opts *rootOptions, run func(app *bootstrap.CLIApp) error) error {
	app, err := bootstrap.BuildCLI(opts.configFile)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return run(app)
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
