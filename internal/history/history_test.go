package history

import (
	"testing"
)

func TestAppend_DoesNotMutateInput(t *testing.T) {
	base := History{{Role: RoleUser, Content: "first"}}
	snapshot := base[0]

	grown := Append(base, RoleAssistant, "second")

	if len(base) != 1 || base[0] != snapshot {
		t.Fatalf("input history mutated: %#v", base)
	}
	if len(grown) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(grown))
	}
	if grown[1].Role != RoleAssistant || grown[1].Content != "second" {
		t.Fatalf("unexpected appended turn: %#v", grown[1])
	}
}

func TestAppend_PreservesOrder(t *testing.T) {
	var h History
	h = Append(h, RoleUser, "a")
	h = Append(h, RoleAssistant, "b")
	h = Append(h, RoleUser, "c")

	want := []string{"a", "b", "c"}
	for i, content := range want {
		if h[i].Content != content {
			t.Fatalf("turn %d = %q, want %q", i, h[i].Content, content)
		}
	}
}

func TestRequestMessages_VerbatimCopy(t *testing.T) {
	h := History{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	msgs := RequestMessages(h)
	if len(msgs) != len(h) {
		t.Fatalf("expected %d messages, got %d", len(h), len(msgs))
	}
	for i := range h {
		if msgs[i] != h[i] {
			t.Fatalf("message %d = %#v, want %#v", i, msgs[i], h[i])
		}
	}

	// Mutating the projection must not touch the history.
	msgs[0].Content = "changed"
	if h[0].Content != "hi" {
		t.Fatal("projection aliases the history")
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	h := History{
		{Role: RoleUser, Content: "Hello"},
		{Role: RoleAssistant, Content: "Hi there\n"},
	}
	blob, err := Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(h) {
		t.Fatalf("expected %d turns, got %d", len(h), len(got))
	}
	for i := range h {
		if got[i] != h[i] {
			t.Fatalf("turn %d = %#v, want %#v", i, got[i], h[i])
		}
	}
}

func TestMarshal_NilHistoryIsEmptyArray(t *testing.T) {
	blob, err := Marshal(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", blob)
	}
}

func TestUnmarshal_CorruptBlob(t *testing.T) {
	if _, err := Unmarshal([]byte("{not json")); err == nil {
		t.Fatal("expected decode error for corrupt blob")
	}
}
