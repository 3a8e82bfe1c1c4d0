// Package client implements the game client.
// Handles rendering, input capture, and network communication.
package client

import (
	"encoding/gob"
	"fmt"
	"time"

	"github.com/rayman-net/slideshift/internal/game"
	"github.com/rayman-net/slideshift/internal/gamenet"
	"github.com/rayman-net/slideshift/internal/input"
	"github.com/rayman-net/slideshift/internal/netsim"
	"github.com/rayman-net/slideshift/internal/netsim/netlog"
	"github.com/rayman-net/slideshift/internal/network"
	"github.com/rayman-net/slideshift/internal/protocol"
	"github.com/rayman-net/slideshift/internal/render"
	"github.com/rayman-net/slideshift/internal/server"
)

func init() {
	gob.Register(gamenet.Input{})
	gob.Register(gamenet.Sync{})
	gob.Register(gamenet.Aux{})
}

// Config holds client configuration
type Config struct {
	ServerAddr string // Empty for local/embedded server
	PlayerName string
	RenderMode RenderMode
	TickRate   int
}

// RenderMode specifies the terminal rendering approach
type RenderMode int

const (
	RenderAuto      RenderMode = iota // Auto-detect best mode
	RenderASCII                       // Plain ASCII
	RenderHalfBlock                   // Half-block with color
	RenderBraille                     // Braille patterns
)

func (m RenderMode) toDetectMode() render.Mode {
	switch m {
	case RenderASCII:
		return render.ModeASCII
	case RenderHalfBlock:
		return render.ModeHalfBlock
	case RenderBraille:
		return render.ModeBraille
	default:
		return render.ModeAuto
	}
}

// Client is the game client. It owns a netsim.Orchestrator in the
// autonomous-proxy role, predicting its own player's movement locally and
// reconciling against the authoritative state the server streams back.
type Client struct {
	config    Config
	connected bool
	playerID  int

	world *game.World
	orch  *netsim.Orchestrator[gamenet.Input, gamenet.Sync, gamenet.Aux]
	keys  *input.KeyState

	embeddedServer *server.Server
	conn           network.Connection

	renderer render.GameRenderer
	logger   netlog.Logger

	quitCh chan struct{}
}

// New creates a new client with the given config
func New(cfg Config) *Client {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	return &Client{
		config: cfg,
		keys:   input.NewKeyState(),
		logger: netlog.Console(),
		quitCh: make(chan struct{}),
	}
}

// Connect connects to a remote server or starts embedded server
func (c *Client) Connect() error {
	if c.config.ServerAddr == "" {
		c.playerID = 1
		return c.startEmbeddedServer()
	}
	return c.dialRemoteServer()
}

func (c *Client) startEmbeddedServer() error {
	c.world = game.NewWorld()
	c.world.SpawnPlayer(c.playerID, c.config.PlayerName, 5, 5)
	c.buildOrchestrator()

	cfg := server.DefaultConfig()
	cfg.TickRate = c.config.TickRate
	c.embeddedServer = server.New(cfg)
	c.embeddedServer.SetWorld(c.world)
	if err := c.embeddedServer.Start(); err != nil {
		return fmt.Errorf("client: starting embedded server: %w", err)
	}
	c.connected = true
	return nil
}

// dialRemoteServer connects, exchanges the handshake to learn this
// client's server-assigned player id, then builds the local world and
// orchestrator around that id before starting the receive loop.
func (c *Client) dialRemoteServer() error {
	t := network.NewTCPTransport()
	if err := t.Connect(c.config.ServerAddr); err != nil {
		return fmt.Errorf("client: dialing %s: %w", c.config.ServerAddr, err)
	}
	c.conn = t.Connection()

	handshake := protocol.Handshake{Version: 1, PlayerName: c.config.PlayerName}
	if err := network.SendGob(c.conn, handshake); err != nil {
		return fmt.Errorf("client: handshake: %w", err)
	}

	var ack protocol.HandshakeAck
	if err := network.RecvGob(c.conn, &ack); err != nil {
		return fmt.Errorf("client: handshake ack: %w", err)
	}
	c.playerID = ack.PlayerID

	c.world = game.NewWorld()
	c.world.SpawnPlayer(c.playerID, c.config.PlayerName, 5, 5)
	c.buildOrchestrator()

	c.connected = true
	go c.receiveLoop()
	return nil
}

func (c *Client) buildOrchestrator() {
	driver := &gamenet.HostDriver{
		Name:      "client:" + c.config.PlayerName,
		World:     c.world,
		PlayerID:  c.playerID,
		TickDelta: netsim.SimTimeFromSeconds(1.0 / float64(c.config.TickRate)),
		IntentSource: func() protocol.Intent {
			return c.keys.ToIntents()
		},
	}

	c.orch = gamenet.NewOrchestrator(c.world, c.playerID, driver, netsim.RoleAutonomousProxy, netsim.DefaultInitParams())
	c.orch.Logger = c.logger
	c.orch.SetDesiredServerRPCSendFrequency(20)
}

// receiveLoop drains authoritative sync payloads from the server connection
// and decodes them straight into the orchestrator's pending reconcile slot.
func (c *Client) receiveLoop() {
	for {
		payload, err := c.conn.Recv()
		if err != nil {
			c.logger.Warn("client receive loop ended", "err", err)
			return
		}
		if err := netsim.DecodeAuthoritativeSync(c.orch, payload); err != nil {
			c.logger.Warn("client failed to decode authoritative sync", "err", err)
		}
	}
}

// Run starts the client main loop: initialize the renderer, then tick,
// reconcile, render, and poll input at the configured tick rate until the
// renderer reports a quit event.
func (c *Client) Run() error {
	cap := render.Detect()
	c.renderer = render.SelectRenderer(cap, c.config.RenderMode.toDetectMode())
	if err := c.renderer.Init(); err != nil {
		return fmt.Errorf("client: renderer init: %w", err)
	}
	defer c.renderer.Close()

	if lvl := c.world.Level(); lvl != nil {
		c.renderer.SetTileMap(game.RenderTileMap(lvl))
	}

	tickDuration := time.Second / time.Duration(c.config.TickRate)
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-c.quitCh:
			return nil
		case <-ticker.C:
			if quit := c.step(tickDuration.Seconds()); quit {
				return nil
			}
		}
	}
}

func (c *Client) step(dt float64) (quit bool) {
	// The terminal only reports key-down events (via the OS's own key
	// repeat while held), so each tick starts from a clean slate and is
	// re-armed only by events polled this tick.
	c.keys.Reset()

	for {
		ev, ok := c.renderer.PollInput()
		if !ok {
			break
		}
		if ev.Type == render.InputQuit {
			return true
		}
		c.applyInputEvent(ev)
	}

	c.orch.Tick(netsim.TickParams{Role: netsim.RoleAutonomousProxy, LocalDeltaTimeSeconds: dt})
	c.orch.Reconcile(netsim.RoleAutonomousProxy)

	if c.orch.ShouldSendServerRPC(dt) && c.conn != nil {
		if payload, err := c.orch.Serialize(netsim.TargetServerRPC); err == nil {
			_ = c.conn.Send(payload)
		}
	}

	c.renderer.BeginFrame()
	c.renderer.RenderWorld(c.world, render.Camera{X: 5, Y: 5, Width: 40, Height: 20})
	c.renderer.DrawHUD(fmt.Sprintf("%s  tick=%d", c.config.PlayerName, c.world.Tick))
	c.renderer.EndFrame()

	return false
}

func (c *Client) applyInputEvent(ev render.InputEvent) {
	switch ev.Intent {
	case protocol.IntentLeft:
		c.keys.SetPressed(input.KeyLeft, true)
	case protocol.IntentRight:
		c.keys.SetPressed(input.KeyRight, true)
	case protocol.IntentJump:
		c.keys.SetPressed(input.KeyJump, true)
	case protocol.IntentAttack:
		c.keys.SetPressed(input.KeyAttack, true)
	case protocol.IntentUse:
		c.keys.SetPressed(input.KeyUse, true)
	}
}

// Disconnect closes the connection
func (c *Client) Disconnect() {
	c.connected = false
	close(c.quitCh)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.embeddedServer != nil {
		c.embeddedServer.Stop()
	}
}
