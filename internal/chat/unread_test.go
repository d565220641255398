package chat

import "testing"

func TestUnreadCounts(t *testing.T) {
	tr := NewUnreadTracker()
	key := DeriveKey("u1", "u2")

	if got := tr.Count(key, "u2"); got != 0 {
		t.Fatalf("fresh counter = %d, want 0", got)
	}

	for i := 0; i < 4; i++ {
		tr.Increment(key, "u2")
	}
	if got := tr.Count(key, "u2"); got != 4 {
		t.Fatalf("after 4 increments = %d, want 4", got)
	}

	// counts are per user within the conversation
	tr.Increment(key, "u1")
	if got := tr.Count(key, "u1"); got != 1 {
		t.Fatalf("u1 count = %d, want 1", got)
	}

	tr.Reset(key, "u2")
	if got := tr.Count(key, "u2"); got != 0 {
		t.Fatalf("after reset = %d, want 0", got)
	}
	if got := tr.Count(key, "u1"); got != 1 {
		t.Fatalf("u1 count after u2 reset = %d, want 1", got)
	}
}

func TestUnreadSetReconciles(t *testing.T) {
	tr := NewUnreadTracker()
	key := DeriveKey("u1", "u2")

	tr.Set(key, "u2", 7)
	if got := tr.Count(key, "u2"); got != 7 {
		t.Fatalf("after Set(7) = %d, want 7", got)
	}

	tr.Set(key, "u2", 0)
	if got := tr.Count(key, "u2"); got != 0 {
		t.Fatalf("after Set(0) = %d, want 0", got)
	}
}
