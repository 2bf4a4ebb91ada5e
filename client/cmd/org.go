package cmd

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chathubio/chathub/client/internal/registry"
	"github.com/chathubio/chathub/util"
)

var ignoreCerts bool

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "manage registered chat organizations",
	Long:  `Manage registered chat organizations, allowing you to add, list, remove, and refresh them.`,
}

var orgAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "add a new organization",
	Long:  `Verify a chat server and add it to the registered organizations. The URL is normalized, verified against the server, and the organization icon is downloaded.`,
	Args:  cobra.ExactArgs(1),
	RunE:  addOrgFunc,
}

var orgListCmd = &cobra.Command{
	Use:   "list",
	Short: "list registered organizations",
	RunE:  listOrgsFunc,
}

var orgRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "remove an organization by position",
	Args:  cobra.ExactArgs(1),
	RunE:  removeOrgFunc,
}

var orgRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "re-verify all registered organizations",
	Long:  `Re-verify every registered organization against its server and update stored names and icons. Failures are tolerated and leave the stored records unchanged.`,
	RunE:  refreshOrgsFunc,
}

func init() {
	orgAddCmd.Flags().BoolVar(&ignoreCerts, "ignore-certs", false, "skip certificate validation for this server")

	orgCmd.AddCommand(orgAddCmd)
	orgCmd.AddCommand(orgListCmd)
	orgCmd.AddCommand(orgRemoveCmd)
	orgCmd.AddCommand(orgRefreshCmd)
}

func addOrgFunc(cmd *cobra.Command, args []string) error {
	SetFlagsFromEnvVars(rootCmd)
	cmd.SetOut(cmd.OutOrStdout())

	if err := util.InitLog(logLevel, logFile); err != nil {
		return err
	}

	rawURL := strings.TrimSpace(args[0])
	if rawURL == "" {
		return errors.New("server URL must not be empty")
	}

	reg := newRegistry(cmd)

	domain, err := reg.CheckDomain(cmd.Context(), rawURL, ignoreCerts, false)
	if err != nil {
		return err
	}

	if err := reg.Add(cmd.Context(), domain); err != nil {
		return err
	}

	cmd.Printf("added %s (%s)\n", domain.Alias, domain.URL)
	return nil
}

func listOrgsFunc(cmd *cobra.Command, _ []string) error {
	SetFlagsFromEnvVars(rootCmd)
	cmd.SetOut(cmd.OutOrStdout())

	if err := util.InitLog(logLevel, logFile); err != nil {
		return err
	}

	reg := newRegistry(cmd)
	domains := reg.List()

	cmd.Println("Found", len(domains), "organizations:")
	for i, d := range domains {
		sessionMarker := "✗"
		if d.LoggedIn {
			sessionMarker = "✓"
		}
		cmd.Printf("%d: %s %s (%s)\n", i, sessionMarker, d.Alias, d.URL)
	}

	return nil
}

func removeOrgFunc(cmd *cobra.Command, args []string) error {
	SetFlagsFromEnvVars(rootCmd)
	cmd.SetOut(cmd.OutOrStdout())

	if err := util.InitLog(logLevel, logFile); err != nil {
		return err
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.New("index must be a number, see \"chathub org list\"")
	}

	reg := newRegistry(cmd)
	if err := reg.Remove(index); err != nil {
		return err
	}

	cmd.Printf("removed organization %d\n", index)
	return nil
}

func refreshOrgsFunc(cmd *cobra.Command, _ []string) error {
	SetFlagsFromEnvVars(rootCmd)
	cmd.SetOut(cmd.OutOrStdout())

	if err := util.InitLog(logLevel, logFile); err != nil {
		return err
	}

	reg := newRegistry(cmd)
	refresher := registry.NewRefresher(reg, registry.DefaultRefreshInterval)
	refresher.RefreshAll(cmd.Context())

	cmd.Println("refreshed", len(reg.List()), "organizations")
	return nil
}
