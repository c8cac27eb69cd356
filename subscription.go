package mqttc

// SubscriptionState describes where a Subscription sits in its lifecycle
// (C6's Subscription Registry, spec §4.5).
type SubscriptionState int

const (
	SubscriptionStateUnsubscribed SubscriptionState = iota
	SubscriptionStatePending
	SubscriptionStateSubscribed
	SubscriptionStateUnsubscribePending
	SubscriptionStateError
)

func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateUnsubscribed:
		return "unsubscribed"
	case SubscriptionStatePending:
		return "subscription_pending"
	case SubscriptionStateSubscribed:
		return "subscribed"
	case SubscriptionStateUnsubscribePending:
		return "unsubscription_pending"
	case SubscriptionStateError:
		return "error"
	default:
		return "unknown"
	}
}

// Subscription is a caller-facing, non-owning snapshot of a live
// subscription: its filter, granted QoS, lifecycle state, and (for MQTT
// v5.0) the reason the broker gave for that state. The client owns the
// underlying registration; callers hold this as a read-only view obtained
// via Client.Subscriptions or Client.SubscriptionState.
type Subscription struct {
	Filter         TopicFilter
	QoS            QoS
	State          SubscriptionState
	ReasonCode     ReasonCode
	ReasonString   string
	UserProperties map[string]string
}

// Subscriptions returns a snapshot of every subscription currently known to
// the client, in any state.
func (c *Client) Subscriptions() []Subscription {
	c.sessionLock.Lock()
	defer c.sessionLock.Unlock()

	out := make([]Subscription, 0, len(c.subscriptions))
	for topic, entry := range c.subscriptions {
		out = append(out, Subscription{
			Filter:         ParseTopicFilter(topic),
			QoS:            QoS(entry.qos),
			State:          entry.state,
			ReasonCode:     entry.reasonCode,
			ReasonString:   entry.reasonString,
			UserProperties: entry.options.UserProperties,
		})
	}
	return out
}

// SubscriptionState returns the current state of the subscription for the
// given raw filter string (including any "$share/<group>/" prefix), or
// SubscriptionStateUnsubscribed if no such subscription exists.
func (c *Client) SubscriptionState(topic string) SubscriptionState {
	c.sessionLock.Lock()
	defer c.sessionLock.Unlock()

	if entry, ok := c.subscriptions[topic]; ok {
		return entry.state
	}
	return SubscriptionStateUnsubscribed
}
