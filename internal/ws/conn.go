package ws

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ConnInfo is the handshake metadata carried with every socket for the
// lifetime of the connection. It ends up in ws lifecycle events so a
// dropped rental notification can be traced back to a device.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// newConnID returns a random identifier unique to one socket. Distinct
// from the request id: one device reconnecting keeps its request id but
// gets a fresh conn id.
func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "conn-" + time.Now().UTC().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(buf)
}
