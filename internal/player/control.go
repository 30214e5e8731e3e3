package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gesturetube/internal/log"
	"github.com/ayusman/gesturetube/internal/plugin"
)

// Control is the playback capability of an external player surface.
type Control interface {
	Play() error
	Pause() error
	// Name identifies the surface in logs and status output.
	Name() string
}

// Plugin actions a player plugin must provide.
const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

var (
	// ErrUnsupported is returned when a plugin lacks the play/pause actions.
	ErrUnsupported = errors.New("plugin does not support play and pause")
	// ErrNoSurface is returned when neither a plugin nor a message channel is available.
	ErrNoSurface = errors.New("no player control surface available")
)

// PluginRunner executes plugin requests. *plugin.Executor implements it.
type PluginRunner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginControl drives the player directly through a media-control plugin.
type PluginControl struct {
	plugin  *plugin.Plugin
	runner  PluginRunner
	timeout time.Duration
}

// NewPluginControl wraps p. It fails if p does not declare both play and pause.
func NewPluginControl(p *plugin.Plugin, runner PluginRunner, timeout time.Duration) (*PluginControl, error) {
	if !p.Supports(ActionPlay) || !p.Supports(ActionPause) {
		return nil, fmt.Errorf("%s: %w", p.Manifest.Name, ErrUnsupported)
	}
	return &PluginControl{plugin: p, runner: runner, timeout: timeout}, nil
}

// Play asks the plugin to start playback.
func (c *PluginControl) Play() error {
	return c.run(ActionPlay)
}

// Pause asks the plugin to pause playback.
func (c *PluginControl) Pause() error {
	return c.run(ActionPause)
}

// Name returns the plugin-qualified surface name.
func (c *PluginControl) Name() string {
	return "plugin:" + c.plugin.Manifest.Name
}

func (c *PluginControl) run(action string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.runner.Execute(ctx, c.plugin, &plugin.Request{
		Action:  action,
		Gesture: action,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s %s: %s", c.plugin.Manifest.Name, action, resp.Error)
	}
	return nil
}

// Message is the command envelope understood by an embedded player page.
// It mirrors the iframe postMessage protocol of the YouTube embed API.
type Message struct {
	Event string `json:"event"`
	Func  string `json:"func"`
	Args  []any  `json:"args"`
}

// Broadcaster delivers a JSON-encodable value to the embedded player context.
type Broadcaster interface {
	Broadcast(v any) error
}

// MessageControl drives the player by posting command messages to the embedded page.
type MessageControl struct {
	out Broadcaster
}

// NewMessageControl creates a message-passing control over out.
func NewMessageControl(out Broadcaster) *MessageControl {
	return &MessageControl{out: out}
}

// Play posts a playVideo command.
func (c *MessageControl) Play() error {
	return c.out.Broadcast(NewMessage(PlayVideo))
}

// Pause posts a pauseVideo command.
func (c *MessageControl) Pause() error {
	return c.out.Broadcast(NewMessage(PauseVideo))
}

// Name returns "message".
func (c *MessageControl) Name() string {
	return "message"
}

// NewMessage builds the command envelope for cmd.
func NewMessage(cmd Command) Message {
	return Message{Event: "command", Func: cmd.String(), Args: []any{}}
}

// PluginSource looks plugins up by name. *plugin.Manager implements it.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// Select picks the control surface once per session: the named plugin when it is
// installed and supports play/pause, otherwise message passing over out.
func Select(plugins PluginSource, name string, runner PluginRunner, timeout time.Duration, out Broadcaster) (Control, error) {
	if plugins != nil && name != "" && runner != nil {
		p, err := plugins.Get(name)
		if err == nil {
			c, err := NewPluginControl(p, runner, timeout)
			if err == nil {
				return c, nil
			}
			log.Warn("player plugin unusable, falling back to messages", "plugin", name, "err", err)
		} else {
			log.Info("player plugin not installed, using messages", "plugin", name)
		}
	}

	if out == nil {
		return nil, ErrNoSurface
	}
	return NewMessageControl(out), nil
}
