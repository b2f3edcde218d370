package domain

// Action names a mutation guarded by Authorize.
type Action string

const (
	ActionCreate      Action = "create"
	ActionDelete      Action = "delete"
	ActionUpdateLikes Action = "update-likes"
)

// LikesUpdateIsPublic records that like counts may be changed by any caller,
// authenticated or not. Every other mutation is owner or author gated.
const LikesUpdateIsPublic = true

const (
	reasonAuthRequired = "authentication required"
	reasonOwnerOnly    = "only owner may delete"
)

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string

	action  Action
	actorID string
	anon    bool
}

// Err converts a denial into AuthenticationError or ForbiddenError. It returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.anon {
		return &AuthenticationError{Reason: d.Reason}
	}
	return &ForbiddenError{ActorID: d.actorID, Action: d.action, Reason: d.Reason}
}

// Authorize decides whether actor may perform action on entry. A nil actor is an
// unauthenticated caller. entry may be nil for ActionCreate.
func Authorize(actor *Author, entry *Entry, action Action) Decision {
	d := Decision{action: action}
	if actor != nil {
		d.actorID = actor.ID
	}

	switch action {
	case ActionUpdateLikes:
		if LikesUpdateIsPublic {
			d.Allowed = true
			return d
		}
	case ActionCreate:
		if actor != nil {
			d.Allowed = true
			return d
		}
	case ActionDelete:
		if actor != nil {
			if actor.Owns(entry) {
				d.Allowed = true
				return d
			}
			d.Reason = reasonOwnerOnly
			return d
		}
	}

	if actor == nil {
		d.anon = true
		d.Reason = reasonAuthRequired
		return d
	}
	d.Reason = "action not permitted"
	return d
}
