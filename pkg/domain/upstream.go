package domain

// UpstreamSession is the process-wide authenticated context toward the
// eschool upstream: the session cookies issued at login plus the identity
// the server is logged in as. Sessions are replaced wholesale on re-login,
// never mutated in place.
type UpstreamSession struct {
	// Cookies holds the upstream session cookies by name (JSESSIONID etc).
	Cookies map[string]string `json:"cookies"`
	// PersonID is the prsId of the authenticated upstream account.
	PersonID int64 `json:"person_id"`
}

// UpstreamState is the response of the upstream /state endpoint, reduced to
// the fields the gateway consumes.
type UpstreamState struct {
	User struct {
		PersonID int64 `json:"prsId"`
	} `json:"user"`
	Profile struct {
		FirstName string `json:"firstName"`
	} `json:"profile"`
}

// ThreadSummary is one entry of the upstream conversation-thread listing.
// CounterpartID carries the upstream imgObjId field, which identifies the
// other party of the thread.
type ThreadSummary struct {
	ThreadID      int64  `json:"threadId"`
	Preview       string `json:"msgPreview"`
	SenderName    string `json:"senderFio"`
	CounterpartID int64  `json:"imgObjId"`
	SendDate      int64  `json:"sendDate"`
}

// ThreadMessage is a single message inside a conversation thread.
type ThreadMessage struct {
	Body     string `json:"msg"`
	SenderID int64  `json:"senderId"`
}
