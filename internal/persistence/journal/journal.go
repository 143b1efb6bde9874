// Package journal writes one compressed JSONL file per run: a run header
// followed by a line per turn. The journal is an append-only record for
// replay and inspection; the simulation never reads it back.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"drugwars.ai/internal/sim/game"
)

// Header is the first line of every journal file.
type Header struct {
	RunID     string `json:"run_id"`
	Seed      int64  `json:"seed"`
	StartedAt string `json:"started_at"`
}

// Line is one journal record: exactly one of Header or Turn is set.
type Line struct {
	Header *Header          `json:"header,omitempty"`
	Turn   *game.TurnRecord `json:"turn,omitempty"`
}

type Writer struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter creates <dir>/run_<id>.jsonl.zst and writes the header line.
func NewWriter(dir string, hdr Header) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%s.jsonl.zst", hdr.RunID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &Writer{f: f, enc: enc, w: bufio.NewWriter(enc)}

	if hdr.StartedAt == "" {
		hdr.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := w.writeLine(Line{Header: &hdr}); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Path returns the journal file path.
func (w *Writer) Path() string { return w.f.Name() }

// WriteTurn appends one turn record. Implements game.TurnSink.
func (w *Writer) WriteTurn(rec game.TurnRecord) error {
	return w.writeLine(Line{Turn: &rec})
}

func (w *Writer) writeLine(l Line) error {
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	var firstErr error
	if err := w.w.Flush(); err != nil {
		firstErr = err
	}
	if err := w.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Read decodes a journal file, returning its header and turns in order.
func Read(path string) (Header, []game.TurnRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, nil, err
	}
	defer dec.Close()

	var hdr Header
	var turns []game.TurnRecord
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for sc.Scan() {
		var l Line
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			return hdr, turns, fmt.Errorf("journal line: %w", err)
		}
		if first {
			first = false
			if l.Header == nil {
				return hdr, turns, errors.New("journal: first line is not a header")
			}
			hdr = *l.Header
			continue
		}
		if l.Turn != nil {
			turns = append(turns, *l.Turn)
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return hdr, turns, err
	}
	return hdr, turns, nil
}
