package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/terraytm/iku/pkg/iku/config"
	"github.com/terraytm/iku/pkg/iku/index"
	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/logging"
	"github.com/terraytm/iku/pkg/iku/returncode"
	"github.com/terraytm/iku/pkg/iku/source/devicefs"
	"github.com/terraytm/iku/pkg/iku/sync"
)

var syncConfiguration struct {
	configPath  string
	bufferSize  int
	retries     int
	delaySeconds float64
	destructive bool
	silent      bool
}

var syncCommand = &cobra.Command{
	Use:   "sync <source> <destination>",
	Short: "Synchronize a source directory into a destination folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runSync,
}

func init() {
	flags := syncCommand.Flags()
	flags.StringVar(&syncConfiguration.configPath, "config", "", "Path to a TOML configuration file")
	flags.IntVar(&syncConfiguration.bufferSize, "buffer-size", config.DefaultBufferSize, "Streaming chunk size, in bytes")
	flags.IntVar(&syncConfiguration.retries, "retries", config.DefaultRetries, "Write attempts per file before fatal failure")
	flags.Float64Var(&syncConfiguration.delaySeconds, "delay", 0, "Seconds to pause between files")
	flags.BoolVar(&syncConfiguration.destructive, "destructive", false, "Remove destination files absent from the source")
	flags.BoolVar(&syncConfiguration.silent, "silent", false, "Suppress progress output")
}

func runSync(command *cobra.Command, arguments []string) error {
	sourceRoot, destination := arguments[0], arguments[1]

	overrides := &config.FileConfig{
		BufferSize:   &syncConfiguration.bufferSize,
		Retries:      &syncConfiguration.retries,
		DelaySeconds: &syncConfiguration.delaySeconds,
		Destructive:  &syncConfiguration.destructive,
		Silent:       &syncConfiguration.silent,
	}
	if !command.Flags().Changed("buffer-size") {
		overrides.BufferSize = nil
	}
	if !command.Flags().Changed("retries") {
		overrides.Retries = nil
	}
	if !command.Flags().Changed("delay") {
		overrides.DelaySeconds = nil
	}
	if !command.Flags().Changed("destructive") {
		overrides.Destructive = nil
	}
	if !command.Flags().Changed("silent") {
		overrides.Silent = nil
	}
	cfg, err := loadConfig(syncConfiguration.configPath, overrides)
	if err != nil {
		return newUsageError(returncode.InvalidArgument, fmt.Sprintf("unable to load configuration: %v", err))
	}

	destFS, destRoot, closeDest, err := resolveDestination(destination)
	if err != nil {
		return newUsageError(returncode.MissingInfo, fmt.Sprintf("unable to resolve destination: %v", err))
	}
	defer closeDest()

	lock, err := index.AcquireLock(destFS, destRoot)
	if err != nil {
		return err
	}
	defer lock.Release()

	logger := logging.RootLogger.Sublogger("sync")
	controller := &interrupt.Controller{}
	ctx, stopWatch := interrupt.Watch(command.Context())
	defer stopWatch()

	src := devicefs.New(sourceRoot, cfg.BufferSize)

	totalFiles, err := src.CountFiles(ctx)
	if err != nil {
		return fmt.Errorf("unable to count source files: %w", err)
	}

	container := newProgressContainer(cfg.Silent)
	phase1Progress := newBarProgress(container, stepOneText, 0)
	phase2Progress := newBarProgress(container, stepTwoText, totalFiles)

	synchronizer := sync.New(cfg, controller, logger)
	result, err := synchronizer.SynchronizeToFolder(ctx, src, destFS, destRoot, phase1Progress, phase2Progress)
	if container != nil {
		container.Wait()
	}

	if err != nil {
		var interrupted *interrupt.WithData[*sync.SyncResult]
		if errors.As(err, &interrupted) {
			printSyncResult(interrupted.Data)
		}
		return err
	}

	printSyncResult(result)
	if result.Details.CurrentDestinationPath != "" {
		return fmt.Errorf("failed to copy %s (at most %d attempts)", result.Details.CurrentDestinationPath, cfg.Retries)
	}
	return nil
}

func printSyncResult(result *sync.SyncResult) {
	if result == nil {
		return
	}
	fmt.Printf("Indexed %d files (%d already managed)\n", result.FilesIndexed, result.TotalIndices)
	fmt.Printf("Copied %d files, skipped %d, of %d discovered\n",
		result.Details.FilesCopied, result.Details.FilesSkipped, result.TotalFiles)
	fmt.Printf("Transferred %s of %s discovered (%s skipped)\n",
		humanize.Bytes(uint64(result.Details.SizeCopied)),
		humanize.Bytes(uint64(result.Details.SizeDiscovered)),
		humanize.Bytes(uint64(result.Details.SizeSkipped)))
	if len(result.SyncDiff.Added) > 0 {
		fmt.Printf("Added: %v\n", result.SyncDiff.Added)
	}
	if len(result.SyncDiff.Modified) > 0 {
		fmt.Printf("Modified: %v\n", result.SyncDiff.Modified)
	}
	if len(result.SyncDiff.Removed) > 0 {
		fmt.Printf("Removed: %v\n", result.SyncDiff.Removed)
	}
}
