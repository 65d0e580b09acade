package room

// Conn is the transport seam between a room and one participant. The
// websocket adapter implements it in production; tests use in-memory fakes.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Join registers (or re-registers) an identity with a live connection.
// Joining with an identity that already holds a connection closes the stale
// one and replaces it.
type Join struct {
	ID       string
	Nickname string
	Conn     Conn
}

// Leave is an explicit disconnect for an identity.
type Leave struct {
	ID string
}

// Frame is one raw inbound wire frame from a participant. The room decodes
// it; any inbound frame, valid or not, counts as liveness.
type Frame struct {
	ID   string
	Data []byte
}
