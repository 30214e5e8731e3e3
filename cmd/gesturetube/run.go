package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ayusman/gesturetube/internal/app"
	"github.com/ayusman/gesturetube/internal/config"
	"github.com/ayusman/gesturetube/internal/log"
	"github.com/ayusman/gesturetube/internal/plugin"
	"github.com/ayusman/gesturetube/internal/server"
	"github.com/ayusman/gesturetube/internal/store"
	"github.com/ayusman/gesturetube/internal/tray"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	addr       string
	camera     int
	pluginDir  string
	logLevel   string
	tray       bool
	video      string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the player page and control sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	f.StringVar(&opts.addr, "addr", config.DefaultAddr, "HTTP listen address")
	f.IntVar(&opts.camera, "camera", 0, "camera device id")
	f.StringVar(&opts.pluginDir, "plugins", "", "plugin directory (default: <data_dir>/plugins)")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.BoolVar(&opts.tray, "tray", false, "show a system tray icon")
	f.StringVar(&opts.video, "video", "", "YouTube URL to load into the player page")
	return cmd
}

// load reads the config file and applies the flags the user set explicitly.
func (o runOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if f.Changed("camera") {
		cfg.Camera.DeviceID = o.camera
	}
	if f.Changed("plugins") {
		cfg.Player.PluginDir = o.pluginDir
	}
	if f.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if f.Changed("video") {
		cfg.Player.VideoURL = o.video
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir(cfg.DataDir)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, opts runOptions) error {
	log.Init(cfg.Log.Level)

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.Player.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.Player.PluginDir, "err", err)
	}
	for _, p := range plugins.List() {
		log.Info("plugin available", "name", p.Manifest.Name, "actions", p.Manifest.Actions)
	}

	hub := server.NewHub()
	stream := server.NewStreamHandler()

	a := app.New(app.Options{
		Config:   cfg,
		Store:    st,
		Plugins:  plugins,
		Runner:   plugin.NewExecutor(cfg.Player.TimeoutMs),
		Messages: hub,
		Frames:   stream,
	})
	a.AddObserver(hub)
	defer func() {
		if err := a.Stop(); err != nil && !errors.Is(err, app.ErrNotRunning) {
			log.Warn("session stop failed", "err", err)
		}
	}()

	srv := server.New(server.Config{
		StaticDir:   cfg.Server.StaticDir,
		Store:       st,
		Sessions:    a,
		Hub:         hub,
		Stream:      stream,
		BaseContext: ctx,
	})
	if cfg.Player.VideoURL != "" {
		if err := srv.LoadVideo(cfg.Player.VideoURL); err != nil {
			return fmt.Errorf("load video: %w", err)
		}
	}
	if cfg.Server.StaticDir != "" {
		log.Info("serving player page", "dir", cfg.Server.StaticDir)
	}

	if !opts.tray {
		return srv.Run(ctx, cfg.Server.Addr)
	}
	return runWithTray(ctx, srv, a, cfg.Server.Addr)
}

// runWithTray keeps the tray on the calling goroutine, which the native
// menu loop needs, and serves HTTP in the background.
func runWithTray(ctx context.Context, srv *server.Server, a *app.App, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New()
	a.AddObserver(t)
	t.OnToggle(func(enabled bool) {
		if enabled {
			if _, err := a.Start(ctx); err != nil {
				log.Warn("tray start failed", "err", err)
			}
			return
		}
		a.Stop()
	})
	t.OnOpen(func() { openBrowser(pageURL(addr)) })
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

func pageURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("open browser failed", "url", url, "err", err)
	}
}

// findWebDir searches for the player page in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
