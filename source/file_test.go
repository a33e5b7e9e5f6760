package source

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hz.tools/sdr"
)

func TestFileSourceMapsByteRange(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "iq")
	require.NoError(t, err)
	_, err = f.Write([]byte{0, 128, 255, 0})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := OpenFile(f.Name(), 1_000_000)
	require.NoError(t, err)
	defer s.Close()

	buf := make(sdr.SamplesC64, 2)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, float32(-128), real(buf[0]))
	assert.Equal(t, float32(0), imag(buf[0]))
	assert.Equal(t, float32(127), real(buf[1]))
	assert.Equal(t, float32(-128), imag(buf[1]))
}

func TestFileSourceReturnsEOF(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "iq")
	require.NoError(t, err)
	_, err = f.Write([]byte{10, 10})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := OpenFile(f.Name(), 1_000_000)
	require.NoError(t, err)
	defer s.Close()

	buf := make(sdr.SamplesC64, 1)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestFileSourceSampleRate(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "iq")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := OpenFile(f.Name(), 2_048_000)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, uint(2_048_000), s.SampleRate())
}
