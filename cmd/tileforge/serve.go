package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tileforge/internal/config"
	"github.com/vovakirdan/tileforge/internal/platform/tui"
	"github.com/vovakirdan/tileforge/internal/storage"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagLevelDir    string
	flagIdleTimeout int
	flagServeTile   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor SSH server",
	Long: `Start an SSH server that allows users to connect and edit levels.

Each SSH connection gets its own editor with its own level. Levels are
saved under <level-dir>/<user>/ by default. Import and save history is
stored per-server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, uses server.host_key_path from the config

Examples:
  tileforge serve                           # Listen on the configured address
  tileforge serve --ssh :2222               # Listen on port 2222
  tileforge serve --host-key ./my_host_key  # Use specific host key
  tileforge serve --level-dir ./levels      # Store levels in ./levels

Users can connect with:
  ssh localhost -p 2323`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (default from config)")
	serveCmd.Flags().StringVar(&flagLevelDir, "level-dir", "", "Directory for per-user levels (default from config)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().IntVar(&flagServeTile, "tile-size", 32, "Default source tile size for imports")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)
	logger := newLogger(cfg.Log, os.Stderr, "tileforge-ssh")

	addr := flagSSHAddr
	if addr == "" {
		addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	}
	hostKey := flagHostKey
	if hostKey == "" {
		hostKey = config.ExpandPath(cfg.Server.HostKeyPath)
	}
	levelDir := flagLevelDir
	if levelDir == "" {
		levelDir = config.ExpandPath(cfg.Server.LevelDir)
	}

	// Open history storage (optional)
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("history disabled", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:        addr,
		HostKeyPath:    hostKey,
		IdleTimeout:    time.Duration(flagIdleTimeout) * time.Minute,
		LevelDir:       levelDir,
		Engine:         engineConfig(cfg),
		ImportTileSize: flagServeTile,
	}, store, logger)
	exitOnError("creating server", err)

	fmt.Printf("Starting tileforge SSH server on %s\n", server.Addr())
	fmt.Printf("Connect with: ssh %s -p %d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
