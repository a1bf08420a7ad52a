package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

var start = time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)

func samples() []model.Sample {
	return []model.Sample{
		{At: start, EyesVisible: 2},
		{At: start.Add(20 * time.Millisecond), EyesVisible: 0},
		{At: start.Add(170 * time.Millisecond), EyesVisible: 2},
		{At: start.Add(1500*time.Millisecond + 250*time.Microsecond), EyesVisible: 1},
	}
}

func assertSamplesEqual(t *testing.T, want, got []model.Sample) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].At.Equal(got[i].At), "sample %d: want %v got %v", i, want[i].At, got[i].At)
		assert.Equal(t, want[i].EyesVisible, got[i].EyesVisible, "sample %d", i)
	}
}

func TestWriterDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "keyboard")
	for _, s := range samples() {
		require.NoError(t, w.Write(s))
	}
	assert.Equal(t, 4, w.Count())
	require.NoError(t, w.Close())

	tr, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "keyboard", tr.Source)
	assert.True(t, start.Equal(tr.StartedAt))
	assertSamplesEqual(t, samples(), tr.Samples)
	assert.Equal(t, 1500*time.Millisecond+250*time.Microsecond, tr.Duration())
}

func TestDecodeEmptyStream(t *testing.T) {
	tr, err := Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, tr.Samples)
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	data, err := msgpack.Marshal(Header{Version: 2, StartedAt: start.Format(time.RFC3339Nano)})
	require.NoError(t, err)
	_, err = Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestWriterRejectsWritesAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "keyboard")
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Error(t, w.Write(samples()[0]))
}

func TestCreateAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "session.msgpack")
	w, err := Create(path, "replay")
	require.NoError(t, err)
	for _, s := range samples() {
		require.NoError(t, w.Write(s))
	}
	require.NoError(t, w.Close())

	tr, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "replay", tr.Source)
	assertSamplesEqual(t, samples(), tr.Samples)
}

func TestDecodeCSV(t *testing.T) {
	input := strings.Join([]string{
		"# blink for E",
		"seconds,eyes",
		"0,2",
		"0.5, 0",
		"0.65,2",
		"",
		"2.0,2",
	}, "\n")
	tr, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tr.Samples, 4)
	assert.Equal(t, 650*time.Millisecond, tr.Samples[2].At.Sub(tr.StartedAt))
	assert.Equal(t, 0, tr.Samples[1].EyesVisible)
	assert.Equal(t, 2*time.Second, tr.Duration())
}

func TestDecodeCSVRejectsBadRows(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("0,2\nsoon,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = DecodeCSV(strings.NewReader("-1,2\n"))
	require.Error(t, err)

	_, err = DecodeCSV(strings.NewReader("0,2,3\n"))
	require.Error(t, err)
}

func TestEncodeCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, samples()))

	tr, err := DecodeCSV(&buf)
	require.NoError(t, err)
	require.Len(t, tr.Samples, 4)
	for i, s := range samples() {
		assert.Equal(t, s.At.Sub(start), tr.Samples[i].At.Sub(tr.StartedAt), "sample %d", i)
	}
}

func TestReadFileCSVUsesFileNameAsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hi.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,2\n0.1,0\n0.25,2\n"), 0o644))

	tr, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hi.csv", tr.Source)
	assert.Len(t, tr.Samples, 3)
}

func TestHasWallClock(t *testing.T) {
	tr, err := DecodeCSV(strings.NewReader("seconds,eyes\n0,2\n0.5,0\n"))
	require.NoError(t, err)
	assert.False(t, tr.HasWallClock())
	assert.False(t, Trace{}.HasWallClock())
	assert.True(t, Trace{StartedAt: start}.HasWallClock())
}
