// gatekeepd verifies Discord guild members: it walks each user through the
// OAuth2 consent flow, confirms the account, grants the membership role, and
// posts an audit notice.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set during build with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "gatekeepd",
	Short:        "Discord member verification service",
	Long:         "gatekeepd runs the member verification service: an OAuth2 consent flow that confirms a Discord account and grants it the configured guild role.",
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "gatekeepd %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
