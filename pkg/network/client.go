package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/coder/websocket"

	"lumen/pkg/shared/ecs"
	protocol "lumen/pkg/shared/network"
	"lumen/pkg/shared/properties"
	"lumen/pkg/shared/world"
)

var ErrUnknownEntity = errors.New("update for unknown entity")

// RemoteEntity is the client's view of one world object.
type RemoteEntity struct {
	Handle     ecs.Entity
	Type       string
	Properties map[uint16]properties.Value
}

// Update is one decoded server packet.
type Update struct {
	Op         protocol.Opcode
	Handle     ecs.Entity
	Type       string
	Properties []protocol.Property
}

// Client is a headless game client. It keeps the last known properties of
// every entity the server has shown it.
type Client struct {
	conn     *websocket.Conn
	registry *properties.Registry
	logger   *slog.Logger

	PlayerEntityID ecs.Entity

	mutex    sync.RWMutex
	entities map[ecs.Entity]*RemoteEntity
}

// Dial connects to a server websocket URL such as ws://127.0.0.1:8081/ws.
// registry must have the world types preloaded.
func Dial(ctx context.Context, url string, registry *properties.Registry, logger *slog.Logger) (*Client, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{
		conn:     c,
		registry: registry,
		logger:   logger,
		entities: make(map[ecs.Entity]*RemoteEntity),
	}, nil
}

func (c *Client) write(ctx context.Context, p *protocol.Packet) error {
	if err := p.Err(); err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageBinary, p.Bytes())
}

// Login sends the character name and waits for the server to accept it.
func (c *Client) Login(ctx context.Context, name string) (ecs.Entity, error) {
	if err := c.write(ctx, protocol.EncodeLogin(name)); err != nil {
		return 0, fmt.Errorf("send login: %w", err)
	}
	for {
		u, err := c.Next(ctx)
		if err != nil {
			return 0, fmt.Errorf("login: %w", err)
		}
		if u.Op == protocol.OpLoginResult {
			c.logger.Info("logged in", "entity", u.Handle)
			return u.Handle, nil
		}
	}
}

// Next reads one packet, applies it to the entity view and returns it.
func (c *Client) Next(ctx context.Context) (Update, error) {
	typ, b, err := c.conn.Read(ctx)
	if err != nil {
		return Update{}, err
	}
	if typ != websocket.MessageBinary {
		return Update{}, fmt.Errorf("unexpected %s message", typ)
	}

	r := protocol.NewReader(b)
	u := Update{Op: r.ReadOpcode()}
	u.Handle = protocol.ReadHandle(r)

	switch u.Op {
	case protocol.OpLoginResult:
		c.PlayerEntityID = u.Handle

	case protocol.OpEntityEnter:
		u.Type = r.ReadLpString()
		if err := r.Err(); err != nil {
			return u, fmt.Errorf("%s: %w", u.Op, err)
		}
		schema, ok := world.SchemaFor(c.registry, u.Type)
		if !ok {
			return u, fmt.Errorf("%s: unknown entity type %q", u.Op, u.Type)
		}
		if u.Properties, err = protocol.DecodeProperties(r, schema); err != nil {
			return u, fmt.Errorf("%s %d: %w", u.Op, u.Handle, err)
		}
		c.mutex.Lock()
		c.entities[u.Handle] = &RemoteEntity{Handle: u.Handle, Type: u.Type, Properties: make(map[uint16]properties.Value)}
		c.apply(u)
		c.mutex.Unlock()

	case protocol.OpEntityProperties:
		c.mutex.RLock()
		e, ok := c.entities[u.Handle]
		c.mutex.RUnlock()
		if !ok {
			return u, fmt.Errorf("%w: %d", ErrUnknownEntity, u.Handle)
		}
		u.Type = e.Type
		schema, _ := world.SchemaFor(c.registry, u.Type)
		if u.Properties, err = protocol.DecodeProperties(r, schema); err != nil {
			return u, fmt.Errorf("%s %d: %w", u.Op, u.Handle, err)
		}
		c.mutex.Lock()
		c.apply(u)
		c.mutex.Unlock()

	case protocol.OpEntityLeave:
		c.mutex.Lock()
		if e, ok := c.entities[u.Handle]; ok {
			u.Type = e.Type
			delete(c.entities, u.Handle)
		}
		c.mutex.Unlock()

	default:
		c.logger.Warn("ignoring packet", "opcode", u.Op)
	}

	return u, r.Err()
}

func (c *Client) apply(u Update) {
	e := c.entities[u.Handle]
	for _, p := range u.Properties {
		e.Properties[p.ID] = p.Value
	}
}

// Entity returns a copy of the client's view of handle.
func (c *Client) Entity(handle ecs.Entity) (RemoteEntity, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	e, ok := c.entities[handle]
	if !ok {
		return RemoteEntity{}, false
	}
	return RemoteEntity{Handle: e.Handle, Type: e.Type, Properties: maps.Clone(e.Properties)}, true
}

// Entities returns how many entities the client currently sees.
func (c *Client) Entities() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entities)
}

func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
