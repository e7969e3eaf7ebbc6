package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLineReporter_FirstUpdateAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf, time.Hour)

	r.Update(Event{Stage: StageScanning, CurrentFile: "a.txt"})

	require.Contains(t, buf.String(), "[scan] a.txt")
}

func TestLineReporter_ThrottlesRapidUpdates(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf, time.Hour)

	r.Update(Event{Stage: StageScanning, CurrentFile: "a.txt"})
	r.Update(Event{Stage: StageScanning, CurrentFile: "b.txt"})
	r.Update(Event{Stage: StageScanning, CurrentFile: "c.txt"})

	lines := strings.Count(buf.String(), "\n")
	require.Equal(t, 1, lines)
}

func TestLineReporter_DoneBypassesThrottle(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf, time.Hour)

	r.Update(Event{Stage: StageScanning, CurrentFile: "a.txt"})
	r.Done("indexed 1 file")

	require.Contains(t, buf.String(), "indexed 1 file")
	require.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestNoopReporter_DiscardsEverything(t *testing.T) {
	var r NoopReporter
	r.Update(Event{Stage: StageEmbedding, CurrentFile: "x"})
	r.Done("done")
}
