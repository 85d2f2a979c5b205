package ingress

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func receive(t *testing.T, connections chan Connection) Connection {
	select {
	case connection := <-connections:
		return connection
	case <-time.After(5 * time.Second):
		t.Fatal("no connection arrived")
	}
	return nil
}

func TestTCPIngress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connections := make(chan Connection)
	manager := NewManager(connections)
	tcp := NewTCPIngress(manager, 0, 0)
	require.NoError(t, tcp.Serve("127.0.0.1:0"))
	go tcp.Poll(ctx)

	conn, err := net.Dial("tcp", tcp.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	client := receive(t, connections)
	assert.Equal(t, ClientTypeTCP, client.Type())
	assert.Equal(t, "127.0.0.1", client.Host())
	assert.Equal(t, 1, manager.Count())

	require.NoError(t, client.Send("What is your name? "))
	reader := bufio.NewReader(conn)
	prompt := make([]byte, len("What is your name? "))
	_, err = io.ReadFull(reader, prompt)
	require.NoError(t, err)
	assert.Equal(t, "What is your name? ", string(prompt))

	_, err = conn.Write([]byte("Alice\r\nb7\n"))
	require.NoError(t, err)

	line, err := client.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "Alice", line)

	line, err = client.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "b7", line)

	// An over-long line is cut short and the next line is intact
	_, err = conn.Write([]byte(strings.Repeat("Z", 2*MAX_LINE_LENGTH) + "\nA1\n"))
	require.NoError(t, err)

	line, err = client.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("Z", MAX_LINE_LENGTH), line)

	line, err = client.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "A1", line)

	require.NoError(t, client.Close())
	assert.True(t, client.Session().IsDone())
	assert.Eventually(t, func() bool { return manager.Count() == 0 }, time.Second, 10*time.Millisecond)

	// Closing twice is harmless
	assert.NoError(t, client.Close())
}

func TestTCPIngressRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connections := make(chan Connection, 4)
	tcp := NewTCPIngress(NewManager(connections), 0.0001, 1)
	require.NoError(t, tcp.Serve("127.0.0.1:0"))
	go tcp.Poll(ctx)

	first, err := net.Dial("tcp", tcp.Addr().String())
	require.NoError(t, err)
	defer first.Close()
	receive(t, connections)

	second, err := net.Dial("tcp", tcp.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	// The server hangs up on the second connection straight away
	second.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = second.Read(make([]byte, 1))
	assert.Error(t, err)
	assert.Empty(t, connections)
}

func TestTCPIngressPruneLimiters(t *testing.T) {
	tcp := NewTCPIngress(NewManager(make(chan Connection)), 1, 1)
	start := time.Now()

	assert.True(t, tcp.allow("10.0.0.1", start))
	assert.True(t, tcp.allow("10.0.0.2", start.Add(2*time.Minute)))
	assert.False(t, tcp.allow("10.0.0.2", start.Add(2*time.Minute)))
	require.Len(t, tcp.limiters, 2)

	tcp.prune(start.Add(LIMITER_IDLE + time.Minute))
	assert.Len(t, tcp.limiters, 1)
	assert.NotContains(t, tcp.limiters, "10.0.0.1")

	tcp.prune(start.Add(2*time.Minute + LIMITER_IDLE + time.Second))
	assert.Empty(t, tcp.limiters)

	// A forgotten host starts over with a full burst
	assert.True(t, tcp.allow("10.0.0.2", start.Add(10*time.Minute)))
}

func TestWSIngress(t *testing.T) {
	connections := make(chan Connection)
	manager := NewManager(connections)
	server := httptest.NewServer(NewWSIngress(manager))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	client := receive(t, connections)
	assert.Equal(t, ClientTypeWS, client.Type())

	go func() {
		client.Send("Hit!\n")
	}()

	typ, message, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "Hit!\n", string(message))

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("C3\n")))
	line, err := client.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "C3", line)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(strings.Repeat("Z", 2*MAX_LINE_LENGTH))))
	line, err = client.ReadLine()
	require.NoError(t, err)
	assert.Len(t, line, MAX_LINE_LENGTH)

	client.Close()
	assert.True(t, client.Session().IsDone())
}

func TestDeviceType(t *testing.T) {
	assert.Equal(t, "desktop", DeviceType("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"))
	assert.Equal(t, "mobile", DeviceType("Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"))
	assert.Equal(t, "unknown", DeviceType(""))
}
