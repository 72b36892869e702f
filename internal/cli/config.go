package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobctl/internal/apperrors"
	"jobctl/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted jobctl settings",
	Long: `Config manages the settings file at ~/.jobctl/config.yaml. File values
can be overridden per invocation through JOBCTL_* environment variables,
and those in turn by command flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file interactively",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all config values",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return apperrors.Validation("config", fmt.Sprintf("config file already exists at %s (use --force to overwrite)", path))
	}

	// Existing values become prompt defaults on a forced re-init.
	file, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	file.Project = promptValue(reader, out, "Project", file.Project)
	file.Region = promptValue(reader, out, "Region", file.Region)
	file.Bucket = promptValue(reader, out, "Bucket", file.Bucket)
	if file.JobName == "" {
		file.JobName = config.DefaultJobName
	}

	if err := file.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Config written to %s\n", path)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := file.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := file.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	value, err := file.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, key := range config.Keys() {
		value, err := file.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %s\n", key, value)
	}
	return nil
}

// promptValue reads one line of input, falling back to def when the line
// is empty.
func promptValue(reader *bufio.Reader, out io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
