package main

import (
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/terraytm/iku/pkg/iku/progress"
)

// stepOneText and stepTwoText mirror the original implementation's
// create_progress_bar(STEP_ONE_TEXT, ...) / STEP_TWO_TEXT pair.
const (
	stepOneText = "Reindexing destination"
	stepTwoText = "Synchronizing files"
)

// newBarProgress builds an mpb bar with the given total and label, and
// returns a progress.Callback that increments it by one per call. If
// container is nil (silent mode), it returns progress.Silent().
func newBarProgress(container *mpb.Progress, label string, total int) progress.Callback {
	if container == nil {
		return progress.Silent()
	}

	bar := container.New(int64(total),
		mpb.BarStyle().Rbound("|"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	return func() {
		bar.Increment()
	}
}

// newProgressContainer returns an mpb.Progress writing to standard output,
// or nil if silent is true.
func newProgressContainer(silent bool) *mpb.Progress {
	if silent {
		return nil
	}
	return mpb.New(mpb.WithOutput(os.Stdout))
}
