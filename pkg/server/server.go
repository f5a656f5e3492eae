package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/multierr"

	"lumen/pkg/characters"
	"lumen/pkg/events"
	"lumen/pkg/metrics"
	"lumen/pkg/network"
	"lumen/pkg/server/systems"
	"lumen/pkg/shared/config"
	"lumen/pkg/shared/ecs"
	protocol "lumen/pkg/shared/network"
	"lumen/pkg/shared/properties"
	"lumen/pkg/shared/world"
	"lumen/pkg/storage"
)

const (
	loginTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

var ErrAlreadyOnline = errors.New("character already online")

type Player struct {
	Session  *network.Session
	EntityID ecs.Entity
	Username string
}

type Options struct {
	Config      *config.Config
	Store       storage.Store
	Definitions *characters.Registry
	Spawns      []characters.Spawn
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// GameServer owns the world. Every access to World and Players happens
// with Mutex held.
type GameServer struct {
	World             *ecs.World
	Registry          *properties.Registry
	Players           map[ecs.Entity]*Player
	Mutex             sync.Mutex
	PropertySystem    *systems.PropertySystem
	PersistenceSystem *systems.PersistenceSystem
	RegenSystem       *systems.RegenSystem
	Definitions       *characters.Registry
	Publisher         events.Publisher
	Metrics           *metrics.Metrics
	Logger            *slog.Logger

	cfg *config.Config
}

func NewGameServer(opts Options) (*GameServer, error) {
	if opts.Config == nil || opts.Store == nil {
		return nil, errors.New("server: config and store are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Definitions == nil {
		opts.Definitions = characters.NewRegistry()
	}

	reg := properties.NewRegistry()
	if err := world.Preload(reg, opts.Logger); err != nil {
		return nil, fmt.Errorf("server: property declarations: %w", err)
	}

	worldECS := ecs.NewWorld()
	gs := &GameServer{
		World:       worldECS,
		Registry:    reg,
		Players:     make(map[ecs.Entity]*Player),
		Definitions: opts.Definitions,
		Publisher:   opts.Publisher,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		cfg:         opts.Config,
	}

	cfg := opts.Config
	gs.RegenSystem = systems.NewRegenSystem(worldECS, cfg.RegenInterval.Duration, cfg.RegenHp, cfg.RegenSp)
	gs.PropertySystem = systems.NewPropertySystem(worldECS, reg, gs, gs.Publisher, gs.Metrics, gs.Logger)
	gs.PersistenceSystem = systems.NewPersistenceSystem(worldECS, reg, opts.Store, gs.Publisher, gs.Logger)

	// regen first so its changes go out in the same tick
	worldECS.AddSystem(gs.RegenSystem)
	worldECS.AddSystem(gs.PropertySystem)

	for _, sp := range opts.Spawns {
		for range sp.Count {
			if _, err := gs.SpawnMonster(sp.Monster); err != nil {
				return nil, err
			}
		}
	}

	return gs, nil
}

// SpawnMonster places a monster from the definition called defID.
func (s *GameServer) SpawnMonster(defID string) (ecs.Entity, error) {
	def, ok := s.Definitions.Get(defID)
	if !ok {
		return 0, fmt.Errorf("spawn: unknown monster %q", defID)
	}

	s.Mutex.Lock()
	id, err := s.addObject(def.NewMonster())
	s.Mutex.Unlock()
	if err != nil {
		return 0, err
	}

	s.publish(events.TopicEntityEntered, events.EntityEntered{Handle: uint32(id), Type: world.TypeMonster, Name: def.Name})
	return id, nil
}

// addObject puts obj into the world and shows it to every session. The
// caller holds the mutex.
func (s *GameServer) addObject(obj world.Object) (ecs.Entity, error) {
	id := s.World.NewEntity()
	obj.SetHandle(id)
	pres := systems.Presence{Object: obj}

	// observers get a snapshot now, so later ticks only carry changes
	if err := s.PropertySystem.Prime(pres); err != nil {
		return 0, fmt.Errorf("spawn %s: %w", obj.TypeName(), err)
	}
	enter, err := s.enterPacket(obj)
	if err != nil {
		return 0, err
	}

	s.World.AddComponent(id, pres)
	s.Broadcast(enter)
	s.Metrics.EntityAdded(obj.TypeName())
	return id, nil
}

func (s *GameServer) enterPacket(obj world.Object) (*protocol.Packet, error) {
	p := protocol.NewEntityEnter(obj.Handle(), obj.TypeName())
	if _, err := obj.SnapshotProperties(s.Registry, protocol.PacketSink{P: p}); err != nil {
		return nil, fmt.Errorf("snapshot %s %d: %w", obj.TypeName(), obj.Handle(), err)
	}
	return p, p.Err()
}

// HandleSession runs one client from login to disconnect.
func (s *GameServer) HandleSession(ctx context.Context, sess *network.Session) {
	logger := sess.Logger()

	name, err := s.readLogin(ctx, sess)
	if err != nil {
		logger.Info("login failed", "error", err)
		sess.Close(websocket.StatusPolicyViolation, "login failed")
		return
	}

	c, err := s.PersistenceSystem.LoadPlayer(ctx, name)
	if err != nil {
		logger.Error("failed to load character", "name", name, "error", err)
		sess.Close(websocket.StatusInternalError, "load failed")
		return
	}

	id, err := s.AddPlayer(sess, c)
	if err != nil {
		logger.Info("login rejected", "name", name, "error", err)
		sess.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	logger.Info("player logged in", "name", name, "entity", id)
	defer s.RemovePlayer(context.WithoutCancel(ctx), id)

	for {
		r, err := sess.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				logger.Debug("read failed", "error", err)
			}
			return
		}
		// clients only ever send a login for now
		logger.Debug("ignoring packet", "opcode", r.ReadOpcode())
	}
}

func (s *GameServer) readLogin(ctx context.Context, sess *network.Session) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	r, err := sess.Read(ctx)
	if err != nil {
		return "", err
	}
	if op := r.ReadOpcode(); op != protocol.OpLogin {
		return "", fmt.Errorf("expected %s, got %s", protocol.OpLogin, op)
	}
	name, err := protocol.DecodeLogin(r)
	if err != nil {
		return "", err
	}
	if !storage.ValidName(name) {
		return "", fmt.Errorf("invalid character name %q", name)
	}
	return name, nil
}

// AddPlayer spawns c for sess and sends the login result followed by a
// snapshot of every visible entity.
func (s *GameServer) AddPlayer(sess *network.Session, c *world.Character) (ecs.Entity, error) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()

	for _, p := range s.Players {
		if p.Username == c.Name {
			return 0, ErrAlreadyOnline
		}
	}

	id, err := s.addObject(c)
	if err != nil {
		return 0, err
	}
	s.Players[id] = &Player{Session: sess, EntityID: id, Username: c.Name}
	s.Metrics.SessionOpened()

	s.send(sess, protocol.EncodeLoginResult(id))
	for _, eid := range ecs.Query[systems.Presence](s.World) {
		pres, _ := ecs.GetComponent[systems.Presence](s.World, eid)
		p, err := s.enterPacket(pres.Object)
		if err != nil {
			s.Logger.Error("snapshot failed", "entity", eid, "error", err)
			continue
		}
		s.send(sess, p)
	}

	s.publish(events.TopicEntityEntered, events.EntityEntered{Handle: uint32(id), Type: world.TypeCharacter, Name: c.Name})
	return id, nil
}

// RemovePlayer saves the player's character, removes it and tells the
// other sessions.
func (s *GameServer) RemovePlayer(ctx context.Context, id ecs.Entity) {
	s.Mutex.Lock()
	player, ok := s.Players[id]
	if !ok {
		s.Mutex.Unlock()
		return
	}
	rec, err := s.PersistenceSystem.Record(id)
	delete(s.Players, id)
	s.World.RemoveEntity(id)
	s.Broadcast(protocol.EncodeEntityLeave(id))
	s.Metrics.SessionClosed()
	s.Metrics.EntityRemoved(world.TypeCharacter)
	s.Mutex.Unlock()

	s.publish(events.TopicEntityLeft, events.EntityLeft{Handle: uint32(id), Type: world.TypeCharacter})
	if err != nil {
		s.Logger.Error("failed to record player", "name", player.Username, "error", err)
		return
	}
	if err := s.PersistenceSystem.Save(ctx, rec); err != nil {
		s.Logger.Error("failed to save player", "name", player.Username, "error", err)
	}
	s.Logger.Info("player left", "name", player.Username, "entity", id)
}

// SaveAll saves every online player.
func (s *GameServer) SaveAll(ctx context.Context) error {
	s.Mutex.Lock()
	var recs []*storage.Record
	for id, player := range s.Players {
		rec, err := s.PersistenceSystem.Record(id)
		if err != nil {
			s.Logger.Error("failed to record player", "name", player.Username, "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	s.Mutex.Unlock()

	var err error
	for _, rec := range recs {
		err = multierr.Append(err, s.PersistenceSystem.Save(ctx, rec))
	}
	return err
}

// AdjustHp implements network.Admin.
func (s *GameServer) AdjustHp(_ context.Context, handle ecs.Entity, delta int32) (int32, error) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()

	pres, ok := ecs.GetComponent[systems.Presence](s.World, handle)
	if !ok {
		return 0, fmt.Errorf("entity %d: %w", handle, network.ErrEntityNotFound)
	}
	pres.Object.AdjustHp(delta)
	return pres.Object.Health(), nil
}

// Broadcast sends p to every session. The caller holds the mutex.
func (s *GameServer) Broadcast(p *protocol.Packet) {
	if err := p.Err(); err != nil {
		s.Logger.Error("dropping packet", "opcode", p.Opcode(), "error", err)
		return
	}
	for _, player := range s.Players {
		s.send(player.Session, p)
	}
}

func (s *GameServer) send(sess *network.Session, p *protocol.Packet) {
	if err := sess.SendPacket(p); err != nil {
		sess.Logger().Debug("send failed", "opcode", p.Opcode(), "error", err)
		return
	}
	s.Metrics.PacketSent(p.Opcode().String(), p.Len())
}

func (s *GameServer) publish(topic string, event any) {
	if err := s.Publisher.Publish(context.Background(), topic, event); err != nil {
		s.Logger.Warn("publish failed", "topic", topic, "error", err)
	}
}

// Update advances the world by one tick.
func (s *GameServer) Update(dt float64) {
	start := time.Now()
	s.Mutex.Lock()
	s.World.Update(dt)
	s.Mutex.Unlock()
	s.Metrics.ObserveTick(time.Since(start))
}

func (s *GameServer) GameLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval.Duration)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Update(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Handler returns the HTTP surface: websocket sessions, metrics, health and
// admin routes.
func (s *GameServer) Handler() http.Handler {
	return network.NewRouter(network.RouterOptions{
		Sessions: s,
		Admin:    s,
		Metrics:  s.Metrics.Handler(),
		Logger:   s.Logger,
	})
}

// Run serves clients and ticks the world until ctx is done, then saves
// every online player.
func (s *GameServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go s.GameLoop(loopCtx)

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.Logger.Warn("http shutdown", "error", err)
	}
	return s.SaveAll(shutdownCtx)
}
