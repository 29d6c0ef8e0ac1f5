package services

// Outcome is the result of a relationship operation that did not fail.
// Some outcomes are soft conflicts: the pair was already in the requested state.
type Outcome string

const (
	OutcomeRequestSent       Outcome = "request_sent"
	OutcomeAlreadyPending    Outcome = "already_pending"
	OutcomeAlreadyFriends    Outcome = "already_friends"
	OutcomeFriendshipCreated Outcome = "friendship_created"
	OutcomeRequestRejected   Outcome = "request_rejected"
	OutcomeFriendRemoved     Outcome = "friend_removed"
)

// IsConflict reports whether nothing changed because the state already satisfied the request
func (o Outcome) IsConflict() bool {
	return o == OutcomeAlreadyPending || o == OutcomeAlreadyFriends
}

// Message is the human-readable status returned to API clients
func (o Outcome) Message() string {
	switch o {
	case OutcomeRequestSent:
		return "Friend request sent"
	case OutcomeAlreadyPending:
		return "A friend request is already pending"
	case OutcomeAlreadyFriends:
		return "You are already friends"
	case OutcomeFriendshipCreated:
		return "Friend request accepted"
	case OutcomeRequestRejected:
		return "Friend request rejected"
	case OutcomeFriendRemoved:
		return "Friend removed"
	}
	return string(o)
}
