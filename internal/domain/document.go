package domain

// Document is a loaded knowledge-base source before chunking.
type Document struct {
	Source  string // base name of the originating file
	Page    int    // 1-based page number, 0 when not paginated
	Content string
}

// ChatTurn represents one conversation turn, most-recent-last in a history slice.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// LastTurns returns the trailing window of a conversation history.
// The validator sends only recent turns to bound prompt size.
func LastTurns(history []ChatTurn, n int) []ChatTurn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
