// Package server implements the authoritative game server.
// Can be embedded in the client for local play or run standalone.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/rayman-net/slideshift/internal/game"
	"github.com/rayman-net/slideshift/internal/gamenet"
	"github.com/rayman-net/slideshift/internal/netsim"
	"github.com/rayman-net/slideshift/internal/netsim/netlog"
	"github.com/rayman-net/slideshift/internal/network"
	"github.com/rayman-net/slideshift/internal/protocol"
)

// Config holds server configuration
type Config struct {
	Port       int
	MaxPlayers int
	TickRate   int // Game ticks per second
	SyncRate   int // State broadcasts per second (can be lower than tick rate)
	MapPath    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Port:       7777,
		MaxPlayers: 4,
		TickRate:   60,
		SyncRate:   20, // Broadcast state 20 times per second
		MapPath:    "",
	}
}

// Session represents a connected client. Each session owns its own
// Authority-role netsim.Orchestrator, predicting nothing but faithfully
// replaying that one client's received input through
// gamenet.Simulation, which steps only that player's entity in the
// shared World.
type Session struct {
	ID       int
	PlayerID int
	Name     string
	Conn     network.Connection

	orch   *netsim.Orchestrator[gamenet.Input, gamenet.Sync, gamenet.Aux]
	driver *gamenet.HostDriver

	mu sync.Mutex
}

// Server is the authoritative game server
type Server struct {
	config  Config
	tick    uint64
	running bool
	mu      sync.RWMutex

	world     *game.World
	sessions  map[int]*Session
	nextSess  int
	transport *network.TCPTransport
	logger    netlog.Logger

	quitCh chan struct{}
	doneCh chan struct{}

	// Callbacks for embedded mode (when server runs in same process as client)
	onStateUpdate func(state game.WorldState)
}

// New creates a new server with the given config
func New(cfg Config) *Server {
	return &Server{
		config:   cfg,
		sessions: make(map[int]*Session),
		quitCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   netlog.Console(),
	}
}

// SetWorld sets the game world (for embedded mode where client creates the world)
func (s *Server) SetWorld(w *game.World) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = w
}

// World returns the server's game world
func (s *Server) World() *game.World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// SetStateUpdateCallback sets a callback for state updates (embedded mode)
func (s *Server) SetStateUpdateCallback(cb func(state game.WorldState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateUpdate = cb
}

// Listen opens the TCP transport and starts accepting connections. Call
// before Start/StartBlocking for standalone (non-embedded) servers.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = network.NewTCPTransport()
	if err := s.transport.Listen(fmt.Sprintf(":%d", s.config.Port)); err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.transport.Accept()
		if err != nil {
			s.logger.Warn("server accept loop ended", "err", err)
			return
		}
		go s.handshakeAndAdd(conn)
	}
}

func (s *Server) handshakeAndAdd(conn network.Connection) {
	var hs protocol.Handshake
	if err := network.RecvGob(conn, &hs); err != nil {
		s.logger.Warn("server handshake failed", "err", err)
		_ = conn.Close()
		return
	}

	session := s.AddSession(conn, hs.PlayerName)
	s.logger.Trace("session connected", "player", hs.PlayerName, "id", session.PlayerID)

	if err := network.SendGob(conn, protocol.HandshakeAck{PlayerID: session.PlayerID}); err != nil {
		s.logger.Warn("server handshake ack failed", "player", hs.PlayerName, "err", err)
		s.RemoveSession(session.ID)
		return
	}

	go s.sessionReceiveLoop(session)
}

func (s *Server) sessionReceiveLoop(session *Session) {
	for {
		payload, err := session.Conn.Recv()
		if err != nil {
			s.logger.Warn("session receive loop ended", "player", session.Name, "err", err)
			s.RemoveSession(session.ID)
			return
		}
		if err := netsim.DecodeInputWindow(session.orch, payload); err != nil {
			s.logger.Warn("server failed to decode input window", "player", session.Name, "err", err)
		}
	}
}

// AddSession adds a new session for a connected client, spawning its
// player entity and Authority orchestrator.
func (s *Server) AddSession(conn network.Connection, name string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.world == nil {
		s.world = game.NewWorld()
	}

	s.nextSess++
	sessionID := s.nextSess
	playerID := sessionID
	s.world.SpawnPlayer(playerID, name, 5, 5)

	driver := &gamenet.HostDriver{
		Name:     fmt.Sprintf("server:%s", name),
		World:    s.world,
		PlayerID: playerID,
	}
	orch := gamenet.NewOrchestrator(s.world, playerID, driver, netsim.RoleAuthority, netsim.DefaultInitParams())
	orch.Logger = s.logger

	session := &Session{
		ID:       sessionID,
		PlayerID: playerID,
		Name:     name,
		Conn:     conn,
		orch:     orch,
		driver:   driver,
	}
	s.sessions[sessionID] = session
	return session
}

// RemoveSession removes a session and closes its connection.
func (s *Server) RemoveSession(sessionID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		if session.Conn != nil {
			_ = session.Conn.Close()
		}
		delete(s.sessions, sessionID)
	}
}

// Start begins the server tick loop
func (s *Server) Start() error {
	s.mu.Lock()
	if s.world == nil {
		s.world = game.NewWorld()
	}
	s.running = true
	s.mu.Unlock()

	go s.runTickLoop()

	return nil
}

// StartBlocking runs the tick loop on the current goroutine
func (s *Server) StartBlocking() error {
	s.mu.Lock()
	if s.world == nil {
		s.world = game.NewWorld()
	}
	s.running = true
	s.mu.Unlock()

	s.runTickLoop()
	return nil
}

func (s *Server) runTickLoop() {
	defer close(s.doneCh)

	tickDuration := time.Second / time.Duration(s.config.TickRate)
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	// Sync rate for state broadcasts
	syncInterval := s.config.TickRate / s.config.SyncRate
	if syncInterval < 1 {
		syncInterval = 1
	}
	ticksSinceSync := 0

	for {
		select {
		case <-s.quitCh:
			return
		case <-ticker.C:
			s.processTick()

			// Broadcast state at sync rate
			ticksSinceSync++
			if ticksSinceSync >= syncInterval {
				ticksSinceSync = 0
				s.broadcastState()
			}
		}
	}
}

// processTick advances every connected session's own player entity through
// its Authority orchestrator (consuming whatever input that client has
// sent), then steps the shared environment once: fists, enemy gravity and
// collision, damage, and cleanup. In purely embedded/local-only mode
// (SetWorld called directly, no sessions ever added) only the environment
// step runs: the embedded client's own autonomous-proxy orchestrator is
// already driving its single local player, so there is nothing here left
// to duplicate.
func (s *Server) processTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		session.orch.Tick(netsim.TickParams{Role: netsim.RoleAuthority, LocalDeltaTimeSeconds: 1.0 / float64(s.config.TickRate)})
	}

	s.world.StepEnvironment()
	s.tick = s.world.Tick
}

// broadcastState sends each session its own authoritative Sync payload and
// invokes the embedded-mode state callback, if any, with a full-world
// snapshot.
func (s *Server) broadcastState() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	state := s.world.Snapshot()
	callback := s.onStateUpdate
	s.mu.RUnlock()

	if callback != nil {
		callback(state)
	}

	for _, session := range sessions {
		if session.Conn == nil {
			continue
		}
		if session.orch.DirtyCount(netsim.TargetAutonomousProxy) == 0 {
			continue
		}
		payload, err := session.orch.Serialize(netsim.TargetAutonomousProxy)
		if err != nil {
			s.logger.Warn("server failed to serialize authoritative sync", "player", session.Name, "err", err)
			continue
		}
		if payload == nil {
			continue
		}
		if err := session.Conn.Send(payload); err != nil {
			s.logger.Warn("server failed to send authoritative sync", "player", session.Name, "err", err)
		}
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.quitCh)
	<-s.doneCh

	s.mu.Lock()
	if s.transport != nil {
		_ = s.transport.Close()
	}
	s.mu.Unlock()
}

// Tick returns the current tick number
func (s *Server) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
