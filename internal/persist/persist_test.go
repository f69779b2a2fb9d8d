package persist

import (
	"os"
	"path/filepath"
	"testing"

	"legion/pkg/core"
	"legion/pkg/events"
	"legion/pkg/mathx"
	"legion/pkg/protocol"
)

func TestSnapshotRoundTrip(t *testing.T) {
	w := core.NewWorld(events.NewBus())
	w.AddFaction(1, "北方军团")
	a, _ := w.SpawnUnit(1, "soldier", mathx.Vec3{X: 3}, "assault")
	for i := 0; i < 3; i++ {
		w.Update(core.FixedDeltaTime)
	}

	path := filepath.Join(t.TempDir(), "saves", "default-3.json.zst")
	if err := WriteSnapshot(path, w.Save()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	st, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if st.Tick != 3 || len(st.Units) != 1 || st.Units[0].ID != a {
		t.Fatalf("snapshot = tick %d, %d units", st.Tick, len(st.Units))
	}

	// 写入路径上不残留临时文件
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("tmp file left behind")
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.json.zst")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestStoreRecordAndLatest(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	// 空槽位返回 (nil, nil)
	rec, err := store.LatestSave("default")
	if err != nil || rec != nil {
		t.Fatalf("empty slot = %+v, %v", rec, err)
	}

	if err := store.RecordSave("default", 100, "saves/default-100.json.zst"); err != nil {
		t.Fatalf("RecordSave: %v", err)
	}
	if err := store.RecordSave("default", 200, "saves/default-200.json.zst"); err != nil {
		t.Fatalf("RecordSave: %v", err)
	}
	if err := store.RecordSave("other", 50, "saves/other-50.json.zst"); err != nil {
		t.Fatalf("RecordSave: %v", err)
	}

	rec, err = store.LatestSave("default")
	if err != nil {
		t.Fatalf("LatestSave: %v", err)
	}
	if rec == nil || rec.Tick != 200 || rec.Path != "saves/default-200.json.zst" {
		t.Fatalf("latest = %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("created_at not recorded")
	}

	rec, _ = store.LatestSave("other")
	if rec == nil || rec.Tick != 50 {
		t.Fatalf("other slot latest = %+v", rec)
	}
}

func TestOpenStoreRejectsEmptyPath(t *testing.T) {
	if _, err := OpenStore(""); err == nil {
		t.Fatal("empty path accepted")
	}
}

func TestEventLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "replay.jsonl.zst")
	log, err := OpenEventLog(path)
	if err != nil {
		t.Fatalf("OpenEventLog: %v", err)
	}

	if err := log.Append(protocol.EventMsg{Kind: "target_selected", Tick: 1, Unit: 1, Target: 2, Reason: "nearest"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	batch := &protocol.EventBatch{Tick: 2, Events: []protocol.EventMsg{
		{Kind: "decision_made", Tick: 2, Unit: 1, Tree: "assault", Status: "running"},
		{Kind: "target_lost", Tick: 2, Unit: 1, Target: 2},
	}}
	if err := log.AppendBatch(batch); err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	msgs, err := ReadEventLog(path)
	if err != nil {
		t.Fatalf("ReadEventLog: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Kind != "target_selected" || msgs[0].Reason != "nearest" {
		t.Fatalf("msgs[0] = %+v", msgs[0])
	}
	if msgs[2].Kind != "target_lost" || msgs[2].Target != 2 {
		t.Fatalf("msgs[2] = %+v", msgs[2])
	}
}
