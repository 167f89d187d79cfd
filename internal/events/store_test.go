package events

import (
	"testing"
	"time"
)

func TestAppendAndRead(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	st := NewStore()
	if err := st.Append(Event{Kind: KindLaunchOK, Target: "web1"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Append(Event{Kind: KindLaunchFailed, Target: "db1", Message: "connection refused"}); err != nil {
		t.Fatal(err)
	}
	all, err := st.Read(Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two events, got %d", len(all))
	}
	if all[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be stamped on append")
	}
}

func TestRead_FiltersByKind(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	st := NewStore()
	for _, k := range []string{KindFetchOK, KindLaunchFailed, KindFetchOK} {
		if err := st.Append(Event{Kind: k}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.Read(Query{Kind: KindFetchOK})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two fetch events, got %d", len(got))
	}
}

func TestRead_SinceAndLimit(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	st := NewStore()
	old := time.Now().Add(-time.Hour).UTC()
	if err := st.Append(Event{Kind: KindHandshakeOK, Timestamp: old}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := st.Append(Event{Kind: KindLaunchOK}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.Read(Query{Since: time.Now().Add(-time.Minute), Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	for _, evt := range got {
		if evt.Kind != KindLaunchOK {
			t.Fatalf("expected only recent launch events, got %+v", evt)
		}
	}
}

func TestRead_MissingJournal(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	got, err := NewStore().Read(Query{})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil on missing journal, got %v", got)
	}
}
