// Package insta defines the capability surface this service needs from the
// remote social-media platform, plus an HTTP gateway implementation. The
// platform's private wire protocol stays behind these interfaces; callers
// only see typed failure modes.
package insta

import (
	"context"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// Credentials carries everything a login attempt may need. The optional
// fields are only set when the caller is advancing a two-factor or
// challenge step.
type Credentials struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	TwoFactorCode   string `json:"two_factor_code,omitempty"`
	ChallengeMethod string `json:"challenge_method,omitempty"`
	ChallengeCode   string `json:"challenge_code,omitempty"`
}

// AuthAPI is the login capability. Login and Resume return an opaque session
// blob that the caller persists; its contents are a remote implementation
// detail.
type AuthAPI interface {
	// Login attempts a credential login. Returns ErrTwoFactorRequired or a
	// *ChallengeRequiredError when the remote demands another step.
	Login(ctx context.Context, creds Credentials) ([]byte, error)

	// Resume validates a stored session blob and returns a refreshed one.
	Resume(ctx context.Context, username string, state []byte) ([]byte, error)

	// RequestChallenge asks the remote to deliver a verification code via
	// the chosen method.
	RequestChallenge(ctx context.Context, creds Credentials, method string) error
}

// DirectAPI is the inbox capability used by the watcher loop.
type DirectAPI interface {
	// Threads fetches up to limit of the most recent DM threads.
	Threads(ctx context.Context, limit int) ([]domain.Thread, error)

	// Username resolves a user ID to a display name.
	Username(ctx context.Context, userID string) (string, error)

	// Reply sends a text reply into a thread.
	Reply(ctx context.Context, threadID, text string) error

	// MarkSeen marks a message as seen so the conversation does not look
	// stuck when a reply could not be sent.
	MarkSeen(ctx context.Context, threadID, messageID string) error
}
