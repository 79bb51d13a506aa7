package bus

import (
	"github.com/quizdash/quizdash/internal/events"
)

// Transport is the publish/subscribe surface the coordinator broadcasts
// through: unicast to one connection, multicast to a room's group, and group
// membership. Delivery is assumed reliable and ordered per connection.
type Transport interface {
	Join(roomCode, connID string)
	Leave(roomCode, connID string)
	ToRoom(roomCode string, evt events.Event)
	ToConn(connID string, evt events.Event)
}
