package ingress

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cfoust/broadside/pkg/utils"

	"github.com/mileusna/useragent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

const (
	WRITE_TIMEOUT = 5 * time.Second
)

// WSClient carries one line per text frame in either direction.
type WSClient struct {
	id         ClientID
	host       string
	deviceType string
	conn       *websocket.Conn
	session    utils.Session
	closed     sync.Once
}

var _ Connection = (*WSClient)(nil)

func NewWSClient(ctx context.Context, conn *websocket.Conn, host string, deviceType string) *WSClient {
	return &WSClient{
		host:       host,
		deviceType: deviceType,
		conn:       conn,
		session:    utils.NewSession(ctx),
	}
}

func (c *WSClient) ID() ClientID {
	return c.id
}

func (c *WSClient) SetID(id ClientID) {
	c.id = id
}

func (c *WSClient) Session() *utils.Session {
	return &c.session
}

func (c *WSClient) Host() string {
	return c.host
}

func (c *WSClient) Type() ClientType {
	return ClientTypeWS
}

func (c *WSClient) DeviceType() string {
	return c.deviceType
}

func (c *WSClient) Reference() string {
	return fmt.Sprintf("ws:%d", c.id)
}

func (c *WSClient) Logger() zerolog.Logger {
	return log.With().
		Uint32("client", uint32(c.id)).
		Str("host", c.host).
		Str("device", c.deviceType).
		Logger()
}

func WriteTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}

func (c *WSClient) Send(message string) error {
	return WriteTimeout(c.session.Ctx(), WRITE_TIMEOUT, c.conn, []byte(message))
}

func (c *WSClient) ReadLine() (string, error) {
	for {
		typ, message, err := c.conn.Read(c.session.Ctx())
		if err != nil {
			return "", err
		}

		if typ != websocket.MessageText {
			continue
		}

		if len(message) > MAX_LINE_LENGTH {
			message = message[:MAX_LINE_LENGTH]
		}

		return strings.TrimRight(string(message), "\r\n"), nil
	}
}

func (c *WSClient) Close() error {
	var err error
	c.closed.Do(func() {
		c.session.Cancel()
		err = c.conn.Close(websocket.StatusNormalClosure, "")
	})
	return err
}

// DeviceType classifies a browser by its user agent.
func DeviceType(userAgent string) string {
	agent := useragent.Parse(userAgent)
	switch {
	case agent.Bot:
		return "bot"
	case agent.Tablet:
		return "tablet"
	case agent.Mobile:
		return "mobile"
	case agent.Desktop:
		return "desktop"
	}
	return "unknown"
}

type WSIngress struct {
	manager *Manager
}

func NewWSIngress(manager *Manager) *WSIngress {
	return &WSIngress{
		manager: manager,
	}
}

func (server *WSIngress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})

	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during relay")

	// We expect to sit behind a reverse proxy, so check this first
	hostname := r.RemoteAddr

	original, ok := r.Header["X-Forwarded-For"]
	if ok {
		hostname = original[0]
	}

	client := NewWSClient(r.Context(), c, hostname, DeviceType(r.UserAgent()))
	defer client.Close()

	err = server.manager.Add(r.Context(), client)
	if err != nil {
		log.Warn().Err(err).Str("host", hostname).Msg("failed to register client")
		return
	}

	logger := client.Logger()
	logger.Info().Msg("client connected")

	<-client.Session().Done()

	logger.Info().Msg("client left")
}
