package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraytm/iku/pkg/iku/config"
	"github.com/terraytm/iku/pkg/iku/duplicate"
	"github.com/terraytm/iku/pkg/iku/index"
	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/logging"
)

var duplicatesConfiguration struct {
	strict bool
}

var duplicatesCommand = &cobra.Command{
	Use:   "duplicates <destination>",
	Short: "List files in a destination's index that share content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDuplicates,
}

func init() {
	duplicatesCommand.Flags().BoolVar(&duplicatesConfiguration.strict, "strict", false,
		"Require matching modification time and size in addition to content")
}

func runDuplicates(command *cobra.Command, arguments []string) error {
	destination := arguments[0]

	destFS, destRoot, closeDest, err := resolveDestination(destination)
	if err != nil {
		return err
	}
	defer closeDest()

	ix := index.New(destFS, destRoot, config.Default(), &interrupt.Controller{}, logging.RootLogger.Sublogger("duplicates"))

	mode := index.DuplicateContent
	if duplicatesConfiguration.strict {
		mode = index.DuplicateStrict
	}

	groups := duplicate.Find(ix, mode)
	if len(groups) == 0 {
		fmt.Println("No duplicates found")
		return nil
	}

	for i, group := range groups {
		fmt.Printf("Group %d:\n", i+1)
		for _, path := range group.Paths {
			fmt.Printf("  %s\n", path)
		}
	}
	return nil
}
