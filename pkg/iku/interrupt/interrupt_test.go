package interrupt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terraytm/iku/pkg/iku/interrupt"
)

func TestMaskReportsMaskedDuringRegion(t *testing.T) {
	var controller interrupt.Controller

	require.False(t, controller.Masked())
	unmask := controller.Mask()
	require.True(t, controller.Masked())
	unmask()
	require.False(t, controller.Masked())
}

func TestWithDataCarriesPartialResultAndUnwraps(t *testing.T) {
	partial := 42
	err := interrupt.NewWithData(partial, context.Canceled)

	require.True(t, errors.Is(err, context.Canceled))

	var withData *interrupt.WithData[int]
	require.True(t, errors.As(err, &withData))
	require.Equal(t, partial, withData.Data)
}
