package service

import "fmt"

// Invite validation reason codes, returned verbatim to clients.
const (
	ReasonInvalidInvite          = "invalid_invite"
	ReasonInviteDisabled         = "invite_disabled"
	ReasonInvitePasswordRequired = "invite_password_required"
	ReasonInviteExpired          = "invite_expired"
	ReasonInviteClaimed          = "invite_claimed"
	ReasonInviteExhausted        = "invite_exhausted"
)

// ValidationError rejects a request before any side effect happens.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason
}

// RemoteError is a non-2xx reply from the remote asset store.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote returned %d", e.Status)
}
