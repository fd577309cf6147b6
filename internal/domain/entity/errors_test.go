package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	invalid := fmt.Errorf("ingest: %w", &InvalidImageError{Reason: "too small"})
	require.Equal(t, KindInvalidImage, ErrorKind(invalid))

	processing := &ProcessingError{Stage: "swelling", Cause: errors.New("nan")}
	require.Equal(t, KindProcessingError, ErrorKind(processing))
	require.Equal(t, KindProcessingError, ErrorKind(errors.New("boom")))
	require.Contains(t, processing.Error(), "swelling")
}
