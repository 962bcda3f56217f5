package domain

// ChatID canonicalizes a pair of participant identifiers into a single
// conversation key. The two identifiers are ordered lexicographically before
// joining, so ChatID(a, b) and ChatID(b, a) name the same conversation.
func ChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
