// Package replay records a match to disk: the event stream as snappy-compressed
// JSON lines and periodic state frames as a zstd-compressed binary stream.
package replay

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"wave-arena/internal/game"
)

const (
	ManifestVersion = 1

	// DefaultFrameEvery keeps one frame in 12 ticks (5 Hz at 60 ticks/s)
	DefaultFrameEvery = 12

	eventsFile   = "events.jsonl.sz"
	framesFile   = "frames.bin.zst"
	manifestFile = "manifest.json"

	frameHeaderSize = 8 + 4 // tick, payload length
)

// ErrClosed is returned when recording into a closed writer
var ErrClosed = errors.New("replay writer closed")

// Manifest describes a replay bundle so tools can locate and interpret it
type Manifest struct {
	Version     int     `json:"version"`
	CreatedAt   string  `json:"createdAt"`
	Seed        int64   `json:"seed"`
	TickRate    int     `json:"tickRate"`
	FrameEvery  int     `json:"frameEvery"`
	ArenaWidth  float64 `json:"arenaWidth"`
	ArenaHeight float64 `json:"arenaHeight"`
	EventsPath  string  `json:"eventsPath"`
	FramesPath  string  `json:"framesPath"`
}

// Options describe the match being recorded
type Options struct {
	Seed        int64
	TickRate    int
	FrameEvery  int
	ArenaWidth  float64
	ArenaHeight float64
	Clock       func() time.Time
}

// Writer implements game.Recorder
type Writer struct {
	mu     sync.Mutex
	dir    string
	every  uint64
	closed bool

	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder

	events uint64
	frames uint64
}

// NewWriter creates a bundle directory under root and opens the compressed streams
func NewWriter(root string, opts Options) (*Writer, Manifest, error) {
	if root == "" {
		return nil, Manifest{}, errors.New("replay root must be provided")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.FrameEvery <= 0 {
		opts.FrameEvery = DefaultFrameEvery
	}

	created := opts.Clock().UTC()
	dir := filepath.Join(root, "match-"+created.Format("20060102T150405.000Z"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Manifest{}, fmt.Errorf("create replay dir: %w", err)
	}

	eventFile, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("create event stream: %w", err)
	}
	frameFile, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		eventFile.Close()
		return nil, Manifest{}, fmt.Errorf("create frame stream: %w", err)
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventFile.Close()
		frameFile.Close()
		return nil, Manifest{}, fmt.Errorf("zstd writer: %w", err)
	}

	manifest := Manifest{
		Version:     ManifestVersion,
		CreatedAt:   created.Format(time.RFC3339Nano),
		Seed:        opts.Seed,
		TickRate:    opts.TickRate,
		FrameEvery:  opts.FrameEvery,
		ArenaWidth:  opts.ArenaWidth,
		ArenaHeight: opts.ArenaHeight,
		EventsPath:  eventsFile,
		FramesPath:  framesFile,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644)
	}
	if err != nil {
		frameStream.Close()
		frameFile.Close()
		eventFile.Close()
		return nil, Manifest{}, fmt.Errorf("write manifest: %w", err)
	}

	return &Writer{
		dir:         dir,
		every:       uint64(opts.FrameEvery),
		eventFile:   eventFile,
		eventStream: snappy.NewBufferedWriter(eventFile),
		frameFile:   frameFile,
		frameStream: frameStream,
	}, manifest, nil
}

// Directory returns the bundle directory
func (w *Writer) Directory() string {
	return w.dir
}

// RecordEvent appends one event as a JSON line
func (w *Writer) RecordEvent(tick uint64, event game.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.eventStream.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.events++
	return nil
}

// RecordFrame stores the state of every FrameEvery-th tick as a
// length-prefixed msgpack frame. Other ticks are skipped.
func (w *Writer) RecordFrame(tick uint64, snap *game.GameSnapshot) error {
	if tick%w.every != 0 {
		return nil
	}
	payload, err := msgpack.Marshal(&snap.State)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint64(header[0:8], tick)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := w.frameStream.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.frameStream.Write(payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	w.frames++

	// Event lines are flushed at frame cadence rather than per line
	if err := w.eventStream.Flush(); err != nil {
		return fmt.Errorf("flush events: %w", err)
	}
	return nil
}

// Stats returns record counters
func (w *Writer) Stats() (events, frames uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events, w.frames
}

// Close flushes both streams and releases the files. The first error wins.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(w.eventStream.Close())
	keep(w.eventFile.Close())
	keep(w.frameStream.Close())
	keep(w.frameFile.Close())
	return firstErr
}
