package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/bookledger/internal/ir"
)

// DefaultDatabase is the ledger file used when neither --db nor LEDGER_DB
// is set.
const DefaultDatabase = "bookledger.db"

// DatabaseEnv names the environment variable that overrides the default
// ledger path.
const DatabaseEnv = "LEDGER_DB"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledgerctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "ledgerctl",
		Short:   "Book lending ledger",
		Version: fmt.Sprintf("%s (manifest v%s)", ir.EngineVersion, ir.ManifestVersion),
		Long: `Host the user, ownership, room and trading contracts over a
SQLite-backed ledger and invoke them from the command line or over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", defaultDatabase(), "path to the SQLite ledger (env "+DatabaseEnv+")")

	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func defaultDatabase() string {
	if path := os.Getenv(DatabaseEnv); path != "" {
		return path
	}
	return DefaultDatabase
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
