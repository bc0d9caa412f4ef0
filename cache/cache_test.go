package cache

import (
	"reflect"
	"testing"
	"time"
)

type entry struct {
	ID    string
	Value string
}

func (e entry) EntityID() string { return e.ID }

func TestGetUnloadedScopeIsEmpty(t *testing.T) {
	s := NewStore[entry]()
	if got := s.Get("boards"); len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if s.Loaded("boards") {
		t.Fatal("scope must not be loaded")
	}
}

func TestSetReplacesWholesale(t *testing.T) {
	s := NewStore[entry]()
	s.Set("boards", []entry{{ID: "a", Value: "1"}, {ID: "b", Value: "2"}})
	s.Set("boards", []entry{{ID: "c", Value: "3"}})

	want := []entry{{ID: "c", Value: "3"}}
	if got := s.Get("boards"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected collection: %#v", got)
	}
	if !s.Loaded("boards") {
		t.Fatal("scope must be loaded")
	}
}

func TestUpsertPreservesPosition(t *testing.T) {
	s := NewStore[entry]()
	s.Set("tasks:b1", []entry{{ID: "a", Value: "1"}, {ID: "b", Value: "2"}, {ID: "c", Value: "3"}})

	s.Upsert("tasks:b1", entry{ID: "b", Value: "22"})
	want := []entry{{ID: "a", Value: "1"}, {ID: "b", Value: "22"}, {ID: "c", Value: "3"}}
	if got := s.Get("tasks:b1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("upsert moved items: %#v", got)
	}

	s.Upsert("tasks:b1", entry{ID: "d", Value: "4"})
	if got := s.Get("tasks:b1"); got[len(got)-1].ID != "d" {
		t.Fatalf("new item must append at tail: %#v", got)
	}
}

func TestUpsertIntoUnloadedScope(t *testing.T) {
	s := NewStore[entry]()
	s.Upsert("boards", entry{ID: "a", Value: "1"})
	if got := s.Get("boards"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected collection: %#v", got)
	}
}

func TestRemoveKeepsOrderAndIndexes(t *testing.T) {
	s := NewStore[entry]()
	s.Set("tasks:b1", []entry{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}})
	s.Remove("tasks:b1", "b")

	want := []entry{{ID: "a"}, {ID: "c"}, {ID: "d"}}
	if got := s.Get("tasks:b1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected collection: %#v", got)
	}

	// Index map must be rebuilt; replacing c in place proves it.
	s.Upsert("tasks:b1", entry{ID: "c", Value: "x"})
	want = []entry{{ID: "a"}, {ID: "c", Value: "x"}, {ID: "d"}}
	if got := s.Get("tasks:b1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("index out of sync after remove: %#v", got)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := NewStore[entry]()
	s.Set("boards", []entry{{ID: "a"}})
	s.Remove("boards", "zzz")
	s.Remove("never-loaded", "a")
	if got := s.Get("boards"); len(got) != 1 {
		t.Fatalf("unexpected collection: %#v", got)
	}
}

func TestSetDeduplicatesByID(t *testing.T) {
	s := NewStore[entry]()
	s.Set("boards", []entry{{ID: "a", Value: "old"}, {ID: "b"}, {ID: "a", Value: "new"}})
	want := []entry{{ID: "a", Value: "new"}, {ID: "b"}}
	if got := s.Get("boards"); !reflect.DeepEqual(got, want) {
		t.Fatalf("duplicate id not replaced in place: %#v", got)
	}
}

func TestDropEvictsScope(t *testing.T) {
	s := NewStore[entry]()
	s.Set("tasks:b1", []entry{{ID: "a"}})
	s.Drop("tasks:b1")
	if s.Loaded("tasks:b1") {
		t.Fatal("scope must be gone after Drop")
	}
}

func TestStaleness(t *testing.T) {
	s := NewStore[entry]()
	now := time.Now()
	s.now = func() time.Time { return now }

	if s.Stale("boards", time.Minute) {
		t.Fatal("unloaded scope must not be stale")
	}
	s.Set("boards", []entry{{ID: "a"}})
	if s.Stale("boards", time.Minute) {
		t.Fatal("fresh scope must not be stale")
	}
	now = now.Add(2 * time.Minute)
	if !s.Stale("boards", time.Minute) {
		t.Fatal("scope past its window must be stale")
	}
}

func TestRestoredScopeIsAlwaysStale(t *testing.T) {
	s := NewStore[entry]()
	s.Restore(map[string][]entry{"boards": {{ID: "a"}}})
	if !s.Loaded("boards") {
		t.Fatal("restored scope must be loaded")
	}
	if !s.Stale("boards", time.Hour) {
		t.Fatal("restored scope must be stale")
	}
}

func TestWatchFiresOnMutationsOnly(t *testing.T) {
	s := NewStore[entry]()
	var fired int
	s.Watch(func() { fired++ })

	s.Set("boards", []entry{{ID: "a"}})
	s.Upsert("boards", entry{ID: "b"})
	s.Remove("boards", "a")
	s.Drop("boards")
	if fired != 4 {
		t.Fatalf("expected 4 notifications, got %d", fired)
	}

	s.Get("boards")
	s.Restore(map[string][]entry{"x": {{ID: "a"}}})
	if fired != 4 {
		t.Fatalf("reads and restore must not notify, got %d", fired)
	}
}

func TestWatcherMayReadStore(t *testing.T) {
	s := NewStore[entry]()
	done := make(chan int, 1)
	s.Watch(func() { done <- len(s.Get("boards")) })
	s.Set("boards", []entry{{ID: "a"}})
	if n := <-done; n != 1 {
		t.Fatalf("watcher saw %d items", n)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore[entry]()
	s.Set("boards", []entry{{ID: "a", Value: "1"}})
	snap := s.Snapshot()
	snap["boards"][0].Value = "mutated"
	if got := s.Get("boards"); got[0].Value != "1" {
		t.Fatalf("snapshot aliases store memory: %#v", got)
	}
}
