package commands

import (
	"github.com/pterm/pterm"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/version"
)

// printStartupBanner prints the serve command's startup summary, grounded on
// the teacher's pterm.DefaultHeader / pterm.Info usage in cmd/qntx/commands.
func printStartupBanner(adminPort int, dbPath string, queueEnabled, useHTTPS bool) {
	pterm.DefaultHeader.WithFullWidth().Println("backendbuddy")
	pterm.Println()

	info := version.Get()
	pterm.Info.Printf("Version: %s\n", info.String())
	pterm.Info.Printf("Admin port: %d\n", adminPort)
	pterm.Info.Printf("Config db: %s\n", dbPath)
	pterm.Info.Printf("Queue enabled: %v\n", queueEnabled)
	pterm.Info.Printf("HTTPS: %v\n", useHTTPS)
	pterm.Println()

	scheme := "http"
	if useHTTPS {
		scheme = "https"
	}
	pterm.Success.Printf("Listening on %s://127.0.0.1:%d\n", scheme, adminPort)
	pterm.Println()
}
