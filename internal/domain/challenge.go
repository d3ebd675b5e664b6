package domain

// ChallengeMethod is a verification delivery channel offered by the remote
// service during a security challenge. The destination is masked by the
// remote and is never persisted.
type ChallengeMethod struct {
	Type        string `json:"type"`
	Destination string `json:"destination"`
}
