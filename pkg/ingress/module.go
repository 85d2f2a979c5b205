package ingress

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"

	"github.com/cfoust/broadside/pkg/utils"

	"github.com/sasha-s/go-deadlock"
)

// A unique identifier for this client for the lifetime of their session.
type ClientID uint32

type ClientType uint8

const (
	ClientTypeTCP ClientType = iota
	ClientTypeWS
)

func (c ClientType) String() string {
	switch c {
	case ClientTypeTCP:
		return "tcp"
	case ClientTypeWS:
		return "ws"
	}
	return "unknown"
}

const (
	// Longest line a client may send, in bytes. Anything past it is
	// dropped.
	MAX_LINE_LENGTH = 1024
)

// A Connection carries lines of text to and from one client.
type Connection interface {
	ID() ClientID
	SetID(id ClientID)
	// Lasts until the connection is closed from either side.
	Session() *utils.Session
	Host() string
	Type() ClientType
	DeviceType() string
	// A string identifier for this client for logging purposes.
	Reference() string
	// Write a message to the client verbatim.
	Send(message string) error
	// Block until the client sends a full line, without its terminator.
	ReadLine() (string, error)
	// Forcibly disconnect this client.
	Close() error
}

// Manager hands out client IDs and keeps track of every live connection
// across all ingresses.
type Manager struct {
	clients        map[Connection]struct{}
	mutex          deadlock.Mutex
	newConnections chan Connection
}

func NewManager(newConnections chan Connection) *Manager {
	return &Manager{
		clients:        make(map[Connection]struct{}),
		newConnections: newConnections,
	}
}

func (m *Manager) newID() (ClientID, error) {
	for attempts := 0; attempts < math.MaxUint16; attempts++ {
		number, err := rand.Int(rand.Reader, big.NewInt(math.MaxUint32))
		if err != nil {
			return 0, err
		}
		id := ClientID(number.Uint64())

		taken := false
		for client := range m.clients {
			if client.ID() == id {
				taken = true
				break
			}
		}
		if taken {
			continue
		}

		return id, nil
	}

	return 0, errors.New("failed to assign client ID")
}

// Add registers a connection and passes it on to whoever is receiving new
// connections. The connection is forgotten once its session ends.
func (m *Manager) Add(ctx context.Context, connection Connection) error {
	m.mutex.Lock()
	id, err := m.newID()
	if err != nil {
		m.mutex.Unlock()
		return err
	}
	connection.SetID(id)
	m.clients[connection] = struct{}{}
	m.mutex.Unlock()

	go func() {
		<-connection.Session().Done()
		m.Remove(connection)
	}()

	select {
	case m.newConnections <- connection:
		return nil
	case <-ctx.Done():
		connection.Close()
		return ctx.Err()
	}
}

func (m *Manager) Remove(connection Connection) {
	m.mutex.Lock()
	delete(m.clients, connection)
	m.mutex.Unlock()
}

func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.clients)
}
