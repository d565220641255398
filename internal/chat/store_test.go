package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(NewUnreadTracker())
}

func testMessage(id, sender, receiver string, at time.Time) Message {
	return Message{
		ID:              id,
		ConversationKey: DeriveKey(sender, receiver),
		SenderID:        sender,
		ReceiverID:      receiver,
		Type:            TypeText,
		Content:         "hello",
		CreatedAt:       at,
	}
}

func TestAppendSetsStatusSent(t *testing.T) {
	s := newTestStore()
	msg := testMessage("m1", "u1", "u2", time.Now())
	msg.Status = StatusRead // must be ignored

	require.NoError(t, s.Append(msg))

	got, ok := s.Get(msg.ConversationKey, "m1")
	require.True(t, ok)
	assert.Equal(t, StatusSent, got.Status)
}

func TestAppendRejectsEmptyContent(t *testing.T) {
	s := newTestStore()
	msg := testMessage("m1", "u1", "u2", time.Now())
	msg.Content = ""
	assert.ErrorIs(t, s.Append(msg), ErrEmptyContent)
}

func TestAppendRejectsUnknownType(t *testing.T) {
	s := newTestStore()
	msg := testMessage("m1", "u1", "u2", time.Now())
	msg.Type = "voice"
	assert.ErrorIs(t, s.Append(msg), ErrInvalidType)
}

func TestStatusOnlyMovesForward(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))

	require.NoError(t, s.AdvanceStatus(key, "m1", StatusDelivered))

	// backwards is rejected
	assert.ErrorIs(t, s.AdvanceStatus(key, "m1", StatusSent), ErrStatusRegression)

	// same status is a no-op
	assert.NoError(t, s.AdvanceStatus(key, "m1", StatusDelivered))

	// forward still works
	require.NoError(t, s.AdvanceStatus(key, "m1", StatusRead))

	got, _ := s.Get(key, "m1")
	assert.Equal(t, StatusRead, got.Status)
}

func TestAdvanceStatusRejectsUnknown(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))
	assert.ErrorIs(t, s.AdvanceStatus(key, "m1", "archived"), ErrInvalidStatus)
}

func TestEditContent(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))

	require.NoError(t, s.EditContent(key, "m1", "u1", "hello again"))

	got, _ := s.Get(key, "m1")
	assert.Equal(t, "hello again", got.Content)
	assert.True(t, got.Edited)
}

func TestEditContentAuthorOnly(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))
	assert.ErrorIs(t, s.EditContent(key, "m1", "u2", "hijacked"), ErrNotAuthor)
}

func TestEditContentTextOnly(t *testing.T) {
	s := newTestStore()
	msg := testMessage("m1", "u1", "u2", time.Now())
	msg.Type = TypeImage
	msg.Content = "uploads/cat.png"
	require.NoError(t, s.Append(msg))
	assert.ErrorIs(t, s.EditContent(msg.ConversationKey, "m1", "u1", "x"), ErrNotEditable)
}

func TestDeleteForEveryoneIrreversible(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))

	require.NoError(t, s.Delete(key, "m1", "u1", ScopeForEveryone))

	// idempotent
	require.NoError(t, s.Delete(key, "m1", "u1", ScopeForEveryone))

	// edits after the fact are rejected
	assert.ErrorIs(t, s.EditContent(key, "m1", "u1", "resurrect"), ErrMessageDeleted)

	// both participants see the tombstone, not the original content
	for _, viewer := range []string{"u1", "u2"} {
		visible := s.VisibleMessages(key, viewer)
		require.Len(t, visible, 1)
		assert.Equal(t, Tombstone, visible[0].Content)
		assert.True(t, visible[0].DeletedForEveryone)
	}
}

func TestDeleteForEveryoneAuthorOnly(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))
	assert.ErrorIs(t, s.Delete(key, "m1", "u2", ScopeForEveryone), ErrNotAuthor)
}

func TestDeleteForMeOnlyAffectsCaller(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))

	// receiver deletes for themselves
	require.NoError(t, s.Delete(key, "m1", "u2", ScopeForMe))

	assert.Empty(t, s.VisibleMessages(key, "u2"))

	// the sender's view is untouched
	visible := s.VisibleMessages(key, "u1")
	require.Len(t, visible, 1)
	assert.Equal(t, "hello", visible[0].Content)
	assert.False(t, visible[0].Edited)
}

func TestDeleteForMeRejectsThirdParty(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))
	assert.ErrorIs(t, s.Delete(key, "m1", "u3", ScopeForMe), ErrNotParticipant)
}

func TestVisibleMessagesOrderedWithTieBreak(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// inserted out of order, two sharing a timestamp
	require.NoError(t, s.Append(testMessage("b", "u1", "u2", at.Add(time.Second))))
	require.NoError(t, s.Append(testMessage("c", "u2", "u1", at.Add(time.Second))))
	require.NoError(t, s.Append(testMessage("a", "u1", "u2", at)))

	visible := s.VisibleMessages(key, "u1")
	require.Len(t, visible, 3)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "b", visible[1].ID) // same timestamp as c, id breaks the tie
	assert.Equal(t, "c", visible[2].ID)
}

func TestUnreadIncrementAndReset(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")

	// u2 is not viewing the conversation: N messages -> count N
	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.Append(testMessage(id, "u1", "u2", time.Now().Add(time.Duration(i)*time.Millisecond))))
	}
	assert.Equal(t, 3, s.Unread(key, "u2"))

	// u2's own outbound message never counts against u2
	require.NoError(t, s.Append(testMessage("m4", "u2", "u1", time.Now())))
	assert.Equal(t, 3, s.Unread(key, "u2"))

	// focusing resets the count and flips inbound messages to read
	changed := s.Focus("u2", key)
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, changed)
	assert.Equal(t, 0, s.Unread(key, "u2"))
	for _, id := range []string{"m1", "m2", "m3"} {
		got, _ := s.Get(key, id)
		assert.Equal(t, StatusRead, got.Status)
	}

	// while focused, new inbound messages do not bump the counter
	require.NoError(t, s.Append(testMessage("m5", "u1", "u2", time.Now())))
	assert.Equal(t, 0, s.Unread(key, "u2"))

	// after unfocusing they do again
	s.Unfocus("u2", key)
	require.NoError(t, s.Append(testMessage("m6", "u1", "u2", time.Now())))
	assert.Equal(t, 1, s.Unread(key, "u2"))
}

func TestMarkReadDoesNotClaimFocus(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))
	require.Equal(t, 1, s.Unread(key, "u2"))

	// u2 acknowledges the conversation from the list view, without opening it
	changed := s.MarkRead("u2", key)
	assert.Equal(t, []string{"m1"}, changed)
	assert.Equal(t, 0, s.Unread(key, "u2"))

	got, _ := s.Get(key, "m1")
	assert.Equal(t, StatusRead, got.Status)

	_, focused := s.Focused("u2")
	assert.False(t, focused)

	// still unfocused, so the next inbound message counts as unread again
	require.NoError(t, s.Append(testMessage("m2", "u1", "u2", time.Now())))
	assert.Equal(t, 1, s.Unread(key, "u2"))
}

func TestFocusCascadeSkipsAlreadyRead(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")
	require.NoError(t, s.Append(testMessage("m1", "u1", "u2", time.Now())))
	require.NoError(t, s.AdvanceStatus(key, "m1", StatusRead))

	changed := s.Focus("u2", key)
	assert.Empty(t, changed)
}

func TestEndToEndSendAndFocus(t *testing.T) {
	// alice (u1) sends "Hello" to bob (u2) at T while bob is elsewhere.
	s := newTestStore()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	key := DeriveKey("u1", "u2")
	require.Equal(t, "u1:u2", key)

	msg := testMessage("m1", "u1", "u2", at)
	msg.Content = "Hello"
	require.NoError(t, s.Append(msg))

	got, ok := s.Get(key, "m1")
	require.True(t, ok)
	assert.Equal(t, StatusSent, got.Status)
	assert.True(t, got.CreatedAt.Equal(at))
	assert.Equal(t, 1, s.Unread(key, "u2"))

	// bob opens the conversation
	changed := s.Focus("u2", key)
	assert.Equal(t, []string{"m1"}, changed)
	assert.Equal(t, 0, s.Unread(key, "u2"))

	got, _ = s.Get(key, "m1")
	assert.Equal(t, StatusRead, got.Status)
}

func TestLoadReplacesCacheWithoutUnreadSideEffects(t *testing.T) {
	s := newTestStore()
	key := DeriveKey("u1", "u2")

	rows := []Message{
		testMessage("m2", "u1", "u2", time.Now().Add(time.Second)),
		testMessage("m1", "u1", "u2", time.Now()),
	}
	rows[0].Status = StatusRead
	rows[1].Status = StatusRead
	s.Load(key, rows)

	visible := s.VisibleMessages(key, "u2")
	require.Len(t, visible, 2)
	assert.Equal(t, "m1", visible[0].ID)
	assert.Equal(t, 0, s.Unread(key, "u2"))
}

func TestRetentionTrimsOldest(t *testing.T) {
	s := newTestStore()
	s.retained = 5
	key := DeriveKey("u1", "u2")
	base := time.Now()
	for i := 0; i < 8; i++ {
		msg := testMessage(string(rune('a'+i)), "u1", "u2", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.Append(msg))
	}
	visible := s.VisibleMessages(key, "u1")
	require.Len(t, visible, 5)
	assert.Equal(t, "d", visible[0].ID)
	assert.Equal(t, "h", visible[4].ID)
}
