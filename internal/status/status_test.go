package status

import (
	"testing"
	"time"
)

func TestUnknownViewIsLoading(t *testing.T) {
	tr := NewTracker()
	got := tr.View(42)
	if got.State != Loading || got.Message != DefaultMessage {
		t.Fatalf("View(42) = %+v, want Loading %q", got, DefaultMessage)
	}
}

func TestSetViewStampsSuccessOnly(t *testing.T) {
	tr := NewTracker()
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return at }

	tr.SetView(10, Updated, "")
	if got := tr.View(10); got.State != Updated || !got.LastUpdated.Equal(at) {
		t.Fatalf("View(10) = %+v, want Updated at %v", got, at)
	}
	tr.now = func() time.Time { return at.Add(time.Hour) }
	tr.SetView(10, Error, "download failed")
	got := tr.View(10)
	if got.State != Error || got.Message != "download failed" || !got.LastUpdated.Equal(at) {
		t.Fatalf("View(10) = %+v, want Error keeping last success time", got)
	}
	tr.SetView(10, Loading, "")
	if got := tr.View(10); got.Message != DefaultMessage {
		t.Fatalf("View(10).Message = %q, want %q", got.Message, DefaultMessage)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	tr := NewTracker()
	var snaps []Snapshot
	unsubscribe := tr.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	tr.SetPipeline(1, "downloading")
	tr.SetDownload(101, 40, false)
	tr.SetDownload(101, 100, true)
	unsubscribe()
	tr.SetPipeline(1, "idle")

	if len(snaps) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(snaps))
	}
	if snaps[1].Download != (Download{Active: true, ImageID: 101, Percent: 40}) {
		t.Fatalf("download snapshot = %+v, want active 40%%", snaps[1].Download)
	}
	if snaps[2].Download.Active {
		t.Fatalf("download still active after done")
	}
	if snaps[0].Pipeline != "downloading" {
		t.Fatalf("Pipeline = %q, want downloading", snaps[0].Pipeline)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	tr := NewTracker()
	tr.SetView(1, Updated, "")
	snap := tr.Snapshot()
	snap.Views[1] = ViewStatus{State: Error}
	if tr.View(1).State != Updated {
		t.Fatalf("Snapshot() shares view map with tracker")
	}
	if Key(Updated) != "updated" {
		t.Fatalf("Key(Updated) = %q, want updated", Key(Updated))
	}
}

func TestSnapshotViewDefaultsToLoading(t *testing.T) {
	tr := NewTracker()
	tr.SetView(4, Error, "download failed")
	snap := tr.Snapshot()

	if got := snap.View(4); got.State != Error || got.Message != "download failed" {
		t.Fatalf("Snapshot.View(4) = %+v, want Error %q", got, "download failed")
	}
	if got := snap.View(5); got.State != Loading || got.Message != DefaultMessage {
		t.Fatalf("Snapshot.View(5) = %+v, want Loading %q", got, DefaultMessage)
	}
}

func TestSetPipelineIgnoresOlderLocks(t *testing.T) {
	tr := NewTracker()
	var snaps []Snapshot
	defer tr.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })()

	tr.SetPipeline(1, "downloading")
	tr.SetPipeline(2, "fetching_view")
	tr.SetPipeline(1, "aborted")

	if got := tr.Snapshot().Pipeline; got != "fetching_view" {
		t.Fatalf("Pipeline = %q, want %q", got, "fetching_view")
	}
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2 (stale write must not notify)", len(snaps))
	}
	tr.SetPipeline(2, "done")
	if got := tr.Snapshot().Pipeline; got != "done" {
		t.Fatalf("Pipeline = %q, want %q", got, "done")
	}
}
