package ingress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cfoust/broadside/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
)

type TCPClient struct {
	id      ClientID
	host    string
	conn    net.Conn
	reader  *bufio.Reader
	session utils.Session
	closed  sync.Once
}

var _ Connection = (*TCPClient)(nil)

func NewTCPClient(ctx context.Context, conn net.Conn, host string) *TCPClient {
	return &TCPClient{
		host:    host,
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, MAX_LINE_LENGTH),
		session: utils.NewSession(ctx),
	}
}

func (c *TCPClient) ID() ClientID {
	return c.id
}

func (c *TCPClient) SetID(id ClientID) {
	c.id = id
}

func (c *TCPClient) Session() *utils.Session {
	return &c.session
}

func (c *TCPClient) Host() string {
	return c.host
}

func (c *TCPClient) Type() ClientType {
	return ClientTypeTCP
}

func (c *TCPClient) DeviceType() string {
	return "terminal"
}

func (c *TCPClient) Reference() string {
	return fmt.Sprintf("tcp:%d", c.id)
}

func (c *TCPClient) Logger() zerolog.Logger {
	return log.With().
		Uint32("client", uint32(c.id)).
		Str("host", c.host).
		Logger()
}

func (c *TCPClient) Send(message string) error {
	_, err := c.conn.Write([]byte(message))
	return err
}

// ReadLine returns the next line without its terminator. Lines longer
// than MAX_LINE_LENGTH are cut short and the remainder is discarded.
func (c *TCPClient) ReadLine() (string, error) {
	line, err := c.reader.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(line), "\r\n"), nil
	}

	truncated := string(line)
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = c.reader.ReadSlice('\n')
	}
	if err != nil {
		return "", err
	}

	return truncated, nil
}

func (c *TCPClient) Close() error {
	var err error
	c.closed.Do(func() {
		c.session.Cancel()
		err = c.conn.Close()
	})
	return err
}

const (
	// How long a host's limiter is kept after its last connection.
	LIMITER_IDLE           = 3 * time.Minute
	LIMITER_PRUNE_INTERVAL = time.Minute
)

type hostLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TCPIngress accepts plain line-oriented TCP connections, as used by
// netcat or telnet.
type TCPIngress struct {
	manager  *Manager
	listener net.Listener

	limit    rate.Limit
	burst    int
	limiters map[string]*hostLimiter
	mutex    deadlock.Mutex
}

// NewTCPIngress throttles new connections from each host to limit per
// second with the given burst. A limit of zero disables throttling.
func NewTCPIngress(manager *Manager, limit float64, burst int) *TCPIngress {
	ingress := &TCPIngress{
		manager:  manager,
		limit:    rate.Limit(limit),
		burst:    burst,
		limiters: make(map[string]*hostLimiter),
	}

	if limit <= 0 {
		ingress.limit = rate.Inf
	}

	return ingress
}

func (i *TCPIngress) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", address, err)
	}

	i.listener = listener
	log.Info().Msgf("listening on tcp %s", listener.Addr())
	return nil
}

func (i *TCPIngress) Addr() net.Addr {
	if i.listener == nil {
		return nil
	}
	return i.listener.Addr()
}

func (i *TCPIngress) allow(host string, now time.Time) bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	entry, ok := i.limiters[host]
	if !ok {
		entry = &hostLimiter{
			limiter: rate.NewLimiter(i.limit, i.burst),
		}
		i.limiters[host] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// prune forgets hosts that have not connected since LIMITER_IDLE before now.
func (i *TCPIngress) prune(now time.Time) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	for host, entry := range i.limiters {
		if now.Sub(entry.lastSeen) > LIMITER_IDLE {
			delete(i.limiters, host)
		}
	}
}

func (i *TCPIngress) pruneLimiters(ctx context.Context) {
	tick := time.NewTicker(LIMITER_PRUNE_INTERVAL)
	defer tick.Stop()

	for {
		select {
		case now := <-tick.C:
			i.prune(now)
		case <-ctx.Done():
			return
		}
	}
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// Poll accepts connections until the context is canceled or the listener
// is shut down.
func (i *TCPIngress) Poll(ctx context.Context) {
	go func() {
		<-ctx.Done()
		i.Shutdown()
	}()
	go i.pruneLimiters(ctx)

	for {
		conn, err := i.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("failed to accept tcp connection")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		host := hostOf(conn.RemoteAddr())
		if !i.allow(host, time.Now()) {
			log.Warn().Str("host", host).Msg("connection rate limited")
			conn.Close()
			continue
		}

		client := NewTCPClient(ctx, conn, host)
		err = i.manager.Add(ctx, client)
		if err != nil {
			log.Warn().Err(err).Str("host", host).Msg("failed to register client")
			client.Close()
			continue
		}

		logger := client.Logger()
		logger.Info().Msg("client connected")
	}
}

func (i *TCPIngress) Shutdown() {
	if i.listener == nil {
		return
	}
	i.listener.Close()
}
