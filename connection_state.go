package mqttc

// ConnectionState is the client-local connection state machine (C7):
// Disconnected -> Connecting -> WaitConnAck -> Connected, and back to
// Disconnected on any failure or explicit Disconnect call.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateWaitConnAck
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateWaitConnAck:
		return "wait_connack"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// setState transitions the connection state machine and emits a
// state_changed event whenever it changes.
func (c *Client) setState(s ConnectionState) {
	if ConnectionState(c.connState.Swap(int32(s))) == s {
		return
	}
	c.events.publish(Event{Type: EventStateChanged, State: s})
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.connState.Load())
}
