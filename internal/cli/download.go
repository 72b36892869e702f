package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var downloadDir string

var downloadCmd = &cobra.Command{
	Use:   "download <job-name>",
	Short: "Download output artifacts to a local directory",
	Long: `Download fetches all output artifacts of a job from the object store
into a local directory, one subdirectory per execution. Files are
written atomically, so an interrupted download never leaves truncated
artifacts behind.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", "./outputs", "directory to download artifacts into")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, needStore)
	if err != nil {
		return err
	}
	defer app.Close()

	count, err := app.service.Download(ctx, args[0], downloadDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d artifacts to %s\n", count, downloadDir)
	return nil
}
