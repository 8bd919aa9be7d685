// Command iku runs the synchronizer described by SPEC_FULL.md: it syncs
// files from a local directory (standing in for the out-of-scope device
// enumeration layer) into a local or SFTP-remote destination folder, or
// lists duplicate files already present in a destination's index.
//
// Argument parsing and result printing are external collaborators per
// spec.md §1; this package is the minimal wiring that makes the rest of
// the module a runnable program rather than a library only.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/terraytm/iku/pkg/iku/logging"
)

var rootCommand = &cobra.Command{
	Use:   "iku",
	Short: "iku synchronizes files from a source directory into a destination",
}

func init() {
	cobra.EnableCommandSorting = false
	rootCommand.AddCommand(syncCommand, duplicatesCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		logging.RootLogger.Error(err)
		os.Exit(int(exitCodeForError(err)))
	}
}
