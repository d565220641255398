package chat

// KeySeparator joins the two participant ids of a conversation key. Employee
// ids are numeric and message ids are UUIDs, so ":" can never occur inside an
// id itself.
const KeySeparator = ":"

// DeriveKey returns the conversation key for a pair of participants. The key
// is the lexicographically sorted pair joined with KeySeparator, so
// DeriveKey(a, b) == DeriveKey(b, a) and distinct unordered pairs never
// collide.
func DeriveKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + KeySeparator + b
}
