package subscription

// Event is a verified webhook payload. The set of variants is closed:
// CheckoutCompleted, SubscriptionChanged and Unhandled.
type Event interface {
	EventID() string
	EventType() string
	event()
}

// Meta carries the gateway's own event identifier and type name.
type Meta struct {
	ID   string
	Type string
}

func (m Meta) EventID() string   { return m.ID }
func (m Meta) EventType() string { return m.Type }
func (Meta) event()              {}

// CheckoutCompleted is a finished hosted checkout. OwnerID and Plan come from
// the metadata attached when the session was created and may be empty.
type CheckoutCompleted struct {
	Meta
	OwnerID         string
	Plan            string
	CustomerRef     string
	SubscriptionRef string
}

// SubscriptionChanged is an update or deletion of a gateway subscription.
// A deleted subscription is canceled whatever status it reports.
type SubscriptionChanged struct {
	Meta
	SubscriptionRef string
	Status          string
	Deleted         bool
}

// Unhandled is any other gateway event. It is acknowledged and ignored.
// Err is set when a verified event of a known type could not be decoded.
type Unhandled struct {
	Meta
	Err error
}
