// Command orchsupd is the reference process that wires a Supervisor to a
// host over internal/hostclient's Unix-domain-socket transport (or, when
// --host-socket is not given, to the in-memory fake host) and exposes the
// operator-facing control socket (SPEC_FULL.md §11.1) the companion
// surfaces (orchsupctl, internal/tui, internal/webserver) dial. With
// --tools-stdio it also serves internal/toolsurface's tool calls and event
// hooks as newline-delimited JSON over stdin/stdout.
//
// Grounded on the teacher's internal/session/daemon.go (the process that
// owns a session and exposes it over a socket) and internal/cli/root.go's
// flag-driven entrypoint shape.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/orchsup/internal/config"
	"github.com/kestrel-labs/orchsup/internal/control"
	"github.com/kestrel-labs/orchsup/internal/debug"
	"github.com/kestrel-labs/orchsup/internal/hostclient"
	"github.com/kestrel-labs/orchsup/internal/netdiscover"
	"github.com/kestrel-labs/orchsup/internal/registry"
	"github.com/kestrel-labs/orchsup/internal/supervisor"
	"github.com/kestrel-labs/orchsup/internal/toolsurface"
	"github.com/kestrel-labs/orchsup/internal/webserver"
	"github.com/kestrel-labs/orchsup/internal/workspace"
)

var (
	repoRootFlag   string
	hostSockFlag   string
	advertiseFlag  bool
	webAddrFlag    string
	toolsStdioFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "orchsupd",
	Short: "Run a supervisor instance and its operator control socket",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&repoRootFlag, "repo", ".", "repository root to orchestrate")
	rootCmd.Flags().StringVar(&hostSockFlag, "host-socket", "", "path to the host's session socket (internal/hostclient)")
	rootCmd.Flags().BoolVar(&advertiseFlag, "advertise", false, "advertise the control socket on the LAN via mDNS")
	rootCmd.Flags().StringVar(&webAddrFlag, "web", "", "host:port to also serve the HTTP/WS companion on (empty disables it)")
	rootCmd.Flags().BoolVar(&toolsStdioFlag, "tools-stdio", false, "serve internal/toolsurface's tool calls and event hooks as newline-delimited JSON over stdin/stdout")
}

func run(cmd *cobra.Command, args []string) error {
	repoRoot, err := filepath.Abs(repoRootFlag)
	if err != nil {
		return fmt.Errorf("resolving --repo: %w", err)
	}

	configDir := config.Dir(repoRoot)
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	reg := registry.NewAtPath(filepath.Join(configDir, cfg.RegistryFileName))
	ws := workspace.New(config.ConfigDirName)

	var host hostclient.Client
	if hostSockFlag != "" {
		host = hostclient.NewSocketClient(hostSockFlag)
	} else {
		host = hostclient.NewFake()
		debug.LogKV("orchsupd", "no --host-socket given, running against an in-memory fake host")
	}

	sup := supervisor.New(reg, ws, host, repoRoot, supervisor.WithDebounceInterval(cfg.DebounceInterval()))

	sockPath := filepath.Join(configDir, "orchsup.sock")
	ctrl := control.NewServer(reg, sockPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- ctrl.Serve(ctx) }()

	var advertiser *netdiscover.Advertiser
	if advertiseFlag {
		instanceID := filepath.Base(repoRoot)
		advertiser, err = netdiscover.Advertise(instanceID, sockPath, 0)
		if err != nil {
			debug.LogKV("orchsupd", "mdns advertise failed, continuing without it", "error", err)
		}
	}
	defer advertiser.Shutdown()

	var web *webserver.Server
	if webAddrFlag != "" {
		client, dialErr := control.Dial(sockPath)
		if dialErr != nil {
			return fmt.Errorf("dialing own control socket for web companion: %w", dialErr)
		}
		defer client.Close()

		webHost, webPort, splitErr := splitHostPort(webAddrFlag)
		if splitErr != nil {
			return splitErr
		}
		web = webserver.New(client, webserver.Options{Host: webHost, Port: webPort})
		if err := web.Start(); err != nil {
			return fmt.Errorf("starting web companion: %w", err)
		}
		log.Printf("orchsupd: web companion listening on %s", web.Addr())
	}

	log.Printf("orchsupd: serving %s for repo %s", sockPath, repoRoot)

	bridgeErr := make(chan error, 1)
	if toolsStdioFlag {
		bridge := toolsurface.NewBridge(sup)
		go func() { bridgeErr <- bridge.Run(ctx, os.Stdin, os.Stdout) }()
		log.Printf("orchsupd: serving tool surface over stdio")
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case err := <-bridgeErr:
		if err != nil {
			return err
		}
	}

	if web != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), webShutdownGrace)
		defer cancel()
		_ = web.Shutdown(shutdownCtx)
	}
	return nil
}

const webShutdownGrace = 5 * time.Second

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("parsing --web %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parsing --web port %q: %w", portStr, err)
	}
	return host, port, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
