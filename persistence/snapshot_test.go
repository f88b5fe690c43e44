package persistence

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadSnapshot_Compressions(t *testing.T) {
	// Repetitive data so LZ4 and ZSTD actually shrink it
	data := bytes.Repeat([]byte("0123456789abcdef"), 512)

	tests := []struct {
		name        string
		compression CompressionType
	}{
		{"None", CompressionNone},
		{"LZ4", CompressionLZ4},
		{"ZSTD", CompressionZSTD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := WriteSnapshot(&buf, FilterTypeScalable, tt.compression, bytes.NewReader(data))
			require.NoError(t, err)
			require.Equal(t, int64(buf.Len()), n)

			ft, got, err := ReadSnapshot(&buf)
			require.NoError(t, err)
			assert.Equal(t, FilterTypeScalable, ft)
			assert.Equal(t, data, got)
		})
	}
}

func TestWriteSnapshot_IncompressibleFallsBackToNone(t *testing.T) {
	// Tiny payloads do not shrink; the envelope must record None so the
	// reader does not try to decompress raw bytes.
	data := []byte{0x01}

	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, FilterTypeBloom, CompressionZSTD, bytes.NewReader(data))
	require.NoError(t, err)

	var hdr Header
	require.NoError(t, binary.Read(bytes.NewReader(buf.Bytes()), binary.LittleEndian, &hdr))
	assert.Equal(t, uint8(CompressionNone), hdr.Compression)

	ft, got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, FilterTypeBloom, ft)
	assert.Equal(t, data, got)
}

func TestReadSnapshot_InvalidMagic(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, FilterTypeBloom, CompressionNone, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	raw := buf.Bytes()
	raw[0] ^= 0xFF

	_, _, err = ReadSnapshot(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestReadSnapshot_InvalidVersion(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, FilterTypeBloom, CompressionNone, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	raw := buf.Bytes()
	raw[4] ^= 0xFF // Version field follows the magic

	_, _, err = ReadSnapshot(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestReadSnapshot_InvalidFilterType(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, FilterType(99), CompressionNone, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	_, _, err = ReadSnapshot(&buf)
	require.ErrorIs(t, err, ErrInvalidFilterType)
}

func TestReadSnapshot_ChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, FilterTypeDynamic, CompressionNone, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF // Flip a payload bit

	_, _, err = ReadSnapshot(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReadSnapshot_Truncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSnapshot(&buf, FilterTypeDynamic, CompressionNone, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	raw := buf.Bytes()

	_, _, err = ReadSnapshot(bytes.NewReader(raw[:len(raw)-3]))
	require.ErrorIs(t, err, ErrPayloadTruncated)
}

func TestSaveLoadFile_RoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "filter.snapshot")
	data := bytes.Repeat([]byte("snapshot"), 64)

	err := SaveToFile(filename, func(w io.Writer) error {
		_, err := WriteSnapshot(w, FilterTypeBloom, CompressionLZ4, bytes.NewReader(data))
		return err
	})
	require.NoError(t, err)

	var got []byte
	err = LoadFromFile(filename, func(r io.Reader) error {
		_, payload, err := ReadSnapshot(r)
		got = payload
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, 48, binary.Size(Header{}))
}

func TestFilterType_String(t *testing.T) {
	assert.Equal(t, "Bloom", FilterTypeBloom.String())
	assert.Equal(t, "Scalable", FilterTypeScalable.String())
	assert.Equal(t, "Dynamic", FilterTypeDynamic.String())
	assert.Equal(t, "Unknown", FilterType(42).String())
}
