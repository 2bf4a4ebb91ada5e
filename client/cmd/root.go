package cmd

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chathubio/chathub/client/internal/registry"
	"github.com/chathubio/chathub/client/internal/store"
)

const envVarPrefix = "CH_"

var (
	configDir string
	logLevel  string
	logFile   string
	assumeYes bool

	rootCmd = &cobra.Command{
		Use:          "chathub",
		Short:        "manage connections to chat organizations",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", defaultConfigDir(), "application data directory")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets the log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "console", "log output, either console or a file path")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "accept certificate trust prompts without asking")

	rootCmd.AddCommand(orgCmd)
	rootCmd.AddCommand(importCmd)
}

func defaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "chathub")
}

func newRegistry(cmd *cobra.Command) *registry.Registry {
	s := store.New(filepath.Join(configDir, "config", "chathub.json"))
	icons := registry.NewIconFetcher(filepath.Join(configDir, "server-icons"))
	confirm := &terminalConfirmer{
		assumeYes: assumeYes,
		in:        cmd.InOrStdin(),
		out:       cmd.OutOrStdout(),
	}
	return registry.New(s, registry.NewVerifier(), icons, confirm)
}

// SetFlagsFromEnvVars reads and updates flag values from environment
// variables with the CH_ prefix.
func SetFlagsFromEnvVars(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.VisitAll(func(f *pflag.Flag) {
		envVar := FlagNameToEnvVar(f.Name, envVarPrefix)

		if value, present := os.LookupEnv(envVar); present {
			err := flags.Set(f.Name, value)
			if err != nil {
				log.Infof("unable to configure flag %s using variable %s, err: %v", f.Name, envVar, err)
			}
		}
	})
}

// FlagNameToEnvVar converts a flag name to an environment variable name,
// adding a prefix, replacing dashes and uppercasing (e.g. config-dir becomes
// CH_CONFIG_DIR).
func FlagNameToEnvVar(cmdFlag string, prefix string) string {
	parsed := strings.ReplaceAll(cmdFlag, "-", "_")
	return prefix + strings.ToUpper(parsed)
}
