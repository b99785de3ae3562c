package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title bank-ledger API
// @version 1.0.0
// @description Customer accounts with deposits, withdrawals, transfers and an append-only transaction history
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	os.Exit(int(newCommander(flag.CommandLine).Execute(context.Background())))
}

// newCommander registers every subcommand on fs and parses the command line.
func newCommander(fs *flag.FlagSet) *subcommands.Commander {
	commander := subcommands.NewCommander(fs, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&migrateCmd{}, "")

	fs.Parse(os.Args[1:])
	return commander
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild date: %s\n", buildVersion, buildCommit, buildDate)
}
