package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteSnapshot encodes src through its WriterTo into a snapshot envelope
// on w: header, then the (optionally compressed) payload. It returns the
// number of bytes written. Payloads that do not shrink under the requested
// compression are stored uncompressed and tagged accordingly.
func WriteSnapshot(w io.Writer, filterType FilterType, compression CompressionType, src io.WriterTo) (int64, error) {
	var inner bytes.Buffer
	if _, err := src.WriteTo(&inner); err != nil {
		return 0, err
	}

	payload, effective, err := compress(compression, inner.Bytes())
	if err != nil {
		return 0, err
	}

	hdr := Header{
		Magic:            MagicNumber,
		Version:          Version,
		FilterType:       uint8(filterType),
		Compression:      uint8(effective),
		UncompressedSize: uint64(inner.Len()),
		PayloadSize:      uint64(len(payload)),
		Checksum:         Checksum(payload),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return 0, err
	}
	n, err := w.Write(payload)
	return int64(binary.Size(hdr)) + int64(n), err
}

// ReadSnapshot reads a snapshot envelope from r, verifies its checksum
// and returns the filter type tag together with the decompressed inner
// encoding.
func ReadSnapshot(r io.Reader) (FilterType, []byte, error) {
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if hdr.Magic != MagicNumber {
		return 0, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != Version {
		return 0, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}
	ft := FilterType(hdr.FilterType)
	if ft != FilterTypeBloom && ft != FilterTypeScalable && ft != FilterTypeDynamic {
		return 0, nil, fmt.Errorf("%w: %d", ErrInvalidFilterType, hdr.FilterType)
	}

	payload := make([]byte, hdr.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrPayloadTruncated, err)
	}
	if got := Checksum(payload); got != hdr.Checksum {
		return 0, nil, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrChecksumMismatch, got, hdr.Checksum)
	}

	data, err := decompress(CompressionType(hdr.Compression), payload, hdr.UncompressedSize)
	if err != nil {
		return 0, nil, err
	}
	return ft, data, nil
}

// SaveToFile writes a snapshot (or any other record) to filename through
// writeFunc, using a temp file in the same directory so the final rename
// is atomic.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filename)
}

// LoadFromFile reads a snapshot (or any other record) from filename
// through readFunc.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewReaderSize(f, 256*1024)
	return readFunc(buf)
}
