package notify

import "sync"

// Conn is the slice of a websocket connection the registry needs.
// *websocket.Conn from gorilla satisfies it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// client pairs a connection with its write lock. gorilla allows at most one
// concurrent writer per connection, so every WriteJSON goes through cl.mu.
type client struct {
	mu   sync.Mutex
	conn Conn
}

func (cl *client) write(v any) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteJSON(v)
}

// Registry tracks live connections per user. It is owned by the notifier:
// handlers Add on connect and Remove on disconnect, nothing else touches it.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64][]*client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64][]*client)}
}

func (r *Registry) Add(userID int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = append(r.conns[userID], &client{conn: c})
}

func (r *Registry) Remove(userID int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.conns[userID][:0]
	for _, cl := range r.conns[userID] {
		if cl.conn != c {
			live = append(live, cl)
		}
	}
	if len(live) == 0 {
		delete(r.conns, userID)
	} else {
		r.conns[userID] = live
	}
}

// Push writes v to every connection of the user, dropping connections that
// fail. Delivery is best effort.
func (r *Registry) Push(userID int64, v any) {
	r.mu.RLock()
	clients := append([]*client(nil), r.conns[userID]...)
	r.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(v); err != nil {
			_ = cl.conn.Close()
			r.Remove(userID, cl.conn)
		}
	}
}
