// Command replayer inspects a recorded match: it prints a summary of the
// bundle and can render any recorded frame to a PNG.
//
// USAGE:
//
//	go run ./cmd/replayer -path replays/match-20240710T120000.000Z
//	go run ./cmd/replayer -path replays/match-... -frame 240 -out frame.png
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"wave-arena/internal/game"
	"wave-arena/internal/render"
	"wave-arena/internal/replay"
)

func main() {
	path := flag.String("path", "", "Path to a replay bundle directory")
	frameTick := flag.Uint64("frame", 0, "Tick of the frame to render (0 = summary only)")
	out := flag.String("out", "frame.png", "Output file for -frame")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "path flag is required")
		os.Exit(1)
	}

	manifest, err := replay.ReadManifest(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	events, err := replay.ReadEvents(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	frames, err := replay.ReadFrames(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	fmt.Printf("Replay recorded %s (seed %d, %d ticks/s, arena %.0fx%.0f)\n",
		manifest.CreatedAt, manifest.Seed, manifest.TickRate, manifest.ArenaWidth, manifest.ArenaHeight)
	printSummary(events, frames)

	if *frameTick == 0 {
		return
	}
	if err := renderFrame(manifest, frames, *frameTick, *out); err != nil {
		fmt.Fprintln(os.Stderr, "render error:", err)
		os.Exit(3)
	}
	fmt.Printf("Wrote tick %d to %s\n", *frameTick, *out)
}

func printSummary(events []game.Event, frames []replay.Frame) {
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.Type.String()]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("%d events\n", len(events))
	for _, t := range types {
		fmt.Printf("  %-16s %d\n", t, counts[t])
	}

	if len(frames) == 0 {
		fmt.Println("no frames")
		return
	}
	last := frames[len(frames)-1]
	fmt.Printf("%d frames, ticks %d..%d, final wave %d\n", len(frames), frames[0].Tick, last.Tick, last.State.Wave)
}

func renderFrame(manifest replay.Manifest, frames []replay.Frame, tick uint64, out string) error {
	for _, f := range frames {
		if f.Tick != tick {
			continue
		}
		order := make([]string, 0, len(f.State.Players))
		for id := range f.State.Players {
			order = append(order, id)
		}
		sort.Strings(order)

		snap := &game.GameSnapshot{
			TickNumber:  f.Tick,
			State:       f.State,
			PlayerOrder: order,
			PlayerCount: len(f.State.Players),
			EnemyCount:  len(f.State.Enemies),
		}

		file, err := os.Create(out)
		if err != nil {
			return err
		}
		defer file.Close()

		w, h := manifest.ArenaWidth, manifest.ArenaHeight
		if w <= 0 || h <= 0 {
			w, h = game.DefaultArenaWidth, game.DefaultArenaHeight
		}
		r := render.NewArenaRenderer(int(w), int(h), w, h)
		return r.RenderPNG(file, snap)
	}
	return fmt.Errorf("no frame recorded at tick %d", tick)
}
