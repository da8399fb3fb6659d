package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"wave-arena/internal/game"
)

// Frame is one recorded state
type Frame struct {
	Tick  uint64
	State game.StateMessage
}

// ReadManifest loads the manifest of the bundle in dir
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// ReadEvents decodes the event stream of the bundle in dir
func ReadEvents(dir string) ([]game.Event, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, m.EventsPath))
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	var events []game.Event
	scanner := bufio.NewScanner(snappy.NewReader(f))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var ev game.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return events, fmt.Errorf("decode event %d: %w", len(events), err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// ReadFrames decodes the frame stream of the bundle in dir
func ReadFrames(dir string) ([]Frame, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, m.FramesPath))
	if err != nil {
		return nil, fmt.Errorf("open frames: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var frames []Frame
	var header [frameHeaderSize]byte
	for {
		if _, err := io.ReadFull(dec, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, fmt.Errorf("frame %d header: %w", len(frames), err)
		}
		tick := binary.LittleEndian.Uint64(header[0:8])
		size := binary.LittleEndian.Uint32(header[8:12])

		payload := make([]byte, size)
		if _, err := io.ReadFull(dec, payload); err != nil {
			return frames, fmt.Errorf("frame %d payload: %w", len(frames), err)
		}
		var state game.StateMessage
		if err := msgpack.Unmarshal(payload, &state); err != nil {
			return frames, fmt.Errorf("decode frame %d: %w", len(frames), err)
		}
		frames = append(frames, Frame{Tick: tick, State: state})
	}
}
