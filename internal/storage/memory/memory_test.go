// internal/storage/memory/memory_test.go
package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
)

func testSegment() core.Segment {
	return core.Segment{
		ID:        "run-1",
		Name:      "first half",
		Source:    "tracks.json",
		StartTime: time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC),
		Frames:    2,
		FPS:       25,
		Window:    5,
		Classes:   []core.EntityClass{core.Player, core.Ball},
		HSRKmh:    20,
		SprintKmh: 25,
	}
}

func TestNew(t *testing.T) {
	cfg := config.MemoryConfig{
		OutputDir:      "/tmp/test",
		CompressOutput: true,
	}
	b := New(cfg)

	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
}

func TestInitAndClose(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestRecordWithoutRun(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.RecordFrames([]report.FrameRow{{TrackID: 7}}); err != ErrNoRun {
		t.Errorf("RecordFrames: expected ErrNoRun, got %v", err)
	}
	if err := b.RecordSummary([]summary.Row{{TrackID: 7}}); err != ErrNoRun {
		t.Errorf("RecordSummary: expected ErrNoRun, got %v", err)
	}
	if err := b.RecordBands([]bands.Row{{TrackID: 7}}); err != ErrNoRun {
		t.Errorf("RecordBands: expected ErrNoRun, got %v", err)
	}
	if err := b.EndRun(); err != ErrNoRun {
		t.Errorf("EndRun: expected ErrNoRun, got %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.StartRun(testSegment()); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	_ = b.RecordFrames([]report.FrameRow{
		{Class: core.Player, TrackID: 7, Frame: 0, SpeedKmh: 18, TotalDistanceM: 5},
		{Class: core.Player, TrackID: 7, Frame: 1, SpeedKmh: 36, TotalDistanceM: 15},
	})
	_ = b.RecordSummary([]summary.Row{{Class: core.Player, TrackID: 7, FinalDistanceM: 15}})
	_ = b.RecordBands([]bands.Row{{TrackID: 7, LowM: 0.2}})

	if len(b.Runs()) != 0 {
		t.Error("run listed before EndRun")
	}
	if err := b.EndRun(); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	runs := b.Runs()
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if len(runs[0].Frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(runs[0].Frames))
	}
	if len(runs[0].Summary) != 1 || len(runs[0].Bands) != 1 {
		t.Errorf("unexpected rows: %+v", runs[0])
	}
	if b.GetExportedFilePath() != "" {
		t.Errorf("expected no export without OutputDir, got %s", b.GetExportedFilePath())
	}
}

func TestConcurrentRecordFrames(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartRun(testSegment())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for f := 0; f < 100; f++ {
				_ = b.RecordFrames([]report.FrameRow{{Class: core.Player, TrackID: core.TrackID(id), Frame: f}})
			}
		}(i)
	}
	wg.Wait()
	_ = b.EndRun()

	if got := len(b.Runs()[0].Frames); got != 1000 {
		t.Errorf("expected 1000 frames, got %d", got)
	}
}
