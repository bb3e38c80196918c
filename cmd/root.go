package cmd

import (
	"context"
	"fmt"
	"github.com/drbushytop/ado-pipeline-preview/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func newRootCmd(fs afero.Fs) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "ado-pipeline-preview",
		Short: "Preview an Azure Pipelines YAML file without committing it",
		Long: `Preview an Azure Pipelines YAML file without committing it.

The pipeline is looked up by name in the given project, and the local file is
sent to the pipeline preview API as a YAML override. The result of the
validation is printed to stdout.
`,
		Example:       "  ado-pipeline-preview --organization contoso --project web --pipeline-name ci --file-name azure-pipelines.yml",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindConfig(cmd, v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			log := logging.New(cfg.Verbose, cmd.ErrOrStderr())
			defer func() { _ = log.Sync() }()

			p := &previewer{
				cfg: cfg,
				fs:  fs,
				log: log,
				out: cmd.OutOrStdout(),
			}

			if cfg.Watch {
				return p.watch(cmd.Context())
			}
			return p.run(cmd.Context())
		},
	}

	addPreviewFlags(rootCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
