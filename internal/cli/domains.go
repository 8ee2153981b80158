package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var (
	domainCategory string
	domainTrust    float64
)

func init() {
	rootCmd.AddCommand(domainsCmd)
	domainsCmd.AddCommand(domainsListCmd)
	domainsCmd.AddCommand(domainsAddCmd)
	domainsCmd.AddCommand(domainsRemoveCmd)

	domainsAddCmd.Flags().StringVar(&domainCategory, "category", "general", "Domain category label")
	domainsAddCmd.Flags().Float64Var(&domainTrust, "trust", 0.7, "Trust score in [0, 1]")
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Manage the trusted domain registry",
	Long: "Lists, adds or removes trusted domains. Changes apply to the\n" +
		"current process only; edit the domains file to persist them.",
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted and blocked domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.gateway == nil {
			return fmt.Errorf("web access is disabled in config")
		}

		snap := a.gateway.TrustedDomains()

		names := make([]string, 0, len(snap.Trusted))
		for domain := range snap.Trusted {
			names = append(names, domain)
		}
		sort.Strings(names)

		fmt.Println("trusted:")
		for _, domain := range names {
			info := snap.Trusted[domain]
			fmt.Printf("  %-28s trust %.2f  %s\n", domain, info.Trust, info.Category)
		}
		fmt.Println("blocked:")
		for _, domain := range snap.Blocked {
			fmt.Printf("  %s\n", domain)
		}
		return nil
	},
}

var domainsAddCmd = &cobra.Command{
	Use:   "add <domain>",
	Short: "Add a trusted domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.gateway == nil {
			return fmt.Errorf("web access is disabled in config")
		}
		if err := a.gateway.AddTrustedDomain(args[0], domainCategory, domainTrust); err != nil {
			return err
		}
		fmt.Printf("added %s (%s, trust %.2f)\n", args[0], domainCategory, domainTrust)
		return nil
	},
}

var domainsRemoveCmd = &cobra.Command{
	Use:   "remove <domain>",
	Short: "Remove a trusted domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.gateway == nil {
			return fmt.Errorf("web access is disabled in config")
		}
		if !a.gateway.RemoveTrustedDomain(args[0]) {
			return fmt.Errorf("domain %s is not in the trusted list", args[0])
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}
