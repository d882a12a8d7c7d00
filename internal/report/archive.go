package report

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// archiveVersion is bumped when the archive layout changes.
const archiveVersion = 1

// archiveHeader is the first line of the decompressed stream: plain JSON,
// so `zstd -dc file | head -1` identifies an archive without decoding the
// gob body.
type archiveHeader struct {
	Version   int       `json:"version"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

type archiveBody struct {
	Reports []*Report
}

// Archive writes reports to w as a zstd stream: one JSON header line
// followed by a gob-encoded body. Nil entries are skipped.
func Archive(w io.Writer, reports []*Report) error {
	kept := make([]*Report, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			kept = append(kept, r)
		}
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(archiveHeader{
		Version:   archiveVersion,
		Count:     len(kept),
		CreatedAt: time.Now().UTC(),
	})
	if _, err := bw.Write(hb); err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}

	if err := gob.NewEncoder(bw).Encode(archiveBody{Reports: kept}); err != nil {
		return fmt.Errorf("report: archive: gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}
	return nil
}

// Restore reads an archive produced by [Archive] and returns its reports.
func Restore(r io.Reader) ([]*Report, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("report: restore: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("report: restore: header: %w", err)
	}
	var header archiveHeader
	if err := json.Unmarshal(line, &header); err != nil {
		return nil, fmt.Errorf("report: restore: header: %w", err)
	}
	if header.Version != archiveVersion {
		return nil, fmt.Errorf("report: restore: unsupported archive version %d", header.Version)
	}

	var body archiveBody
	if err := gob.NewDecoder(br).Decode(&body); err != nil {
		return nil, fmt.Errorf("report: restore: gob decode: %w", err)
	}
	if len(body.Reports) != header.Count {
		return nil, fmt.Errorf("report: restore: header claims %d reports, body has %d",
			header.Count, len(body.Reports))
	}
	return body.Reports, nil
}

// ArchiveFile writes reports to path, creating parent directories.
func ArchiveFile(path string, reports []*Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("report: archive: %w", err)
	}
	defer f.Close()
	return Archive(f, reports)
}

// RestoreFile reads an archive file written by [ArchiveFile].
func RestoreFile(path string) ([]*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: restore: %w", err)
	}
	defer f.Close()
	return Restore(f)
}
