package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chathubio/chathub/client/internal/registry"
	"github.com/chathubio/chathub/util"
)

var importCmd = &cobra.Command{
	Use:   "import <presets-file>",
	Short: "add preset organizations from a YAML file",
	Long:  `Verify and add every organization listed in a preset file. All verifications run concurrently; organizations that are already registered are skipped. Failures are reported per organization while the successfully added ones are kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  importPresetsFunc,
}

func importPresetsFunc(cmd *cobra.Command, args []string) error {
	SetFlagsFromEnvVars(rootCmd)
	cmd.SetOut(cmd.OutOrStdout())

	if err := util.InitLog(logLevel, logFile); err != nil {
		return err
	}

	urls, err := registry.LoadPresets(args[0])
	if err != nil {
		return err
	}

	reg := newRegistry(cmd)
	added, err := reg.Bootstrap(cmd.Context(), urls)
	cmd.Printf("added %d of %d organizations\n", added, len(urls))
	return err
}
