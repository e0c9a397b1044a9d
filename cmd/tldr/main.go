package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/tldr/internal/config"
	"github.com/standardbeagle/tldr/internal/daemon"
	"github.com/standardbeagle/tldr/internal/mcpbridge"
	"github.com/standardbeagle/tldr/internal/version"
	"github.com/standardbeagle/tldr/internal/watch"
	"github.com/standardbeagle/tldr/internal/workspace"
)

func main() {
	app := &cli.App{
		Name:    "tldr",
		Usage:   "Multi-language source indexing and caching daemon",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			daemonCommand(),
			queryCommand(),
			mcpCommand(),
			reindexWorkerCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tldr:", err)
		os.Exit(1)
	}
}

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Start the indexing daemon for the project root",
		Action: func(c *cli.Context) error {
			root := c.String("root")
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			filter := buildFilter(cfg)

			kernel := daemon.NewKernel(cfg.Project.Root, filter, cfg.Index.MaxFileSizeByte)
			if err := kernel.Start(); err != nil {
				if err == daemon.ErrAlreadyRunning {
					return fmt.Errorf("a daemon is already running for %s", cfg.Project.Root)
				}
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			ln, err := daemon.Listen(cfg.Project.Root)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			watcher, err := startWatcher(cfg.Project.Root, filter, kernel)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tldr: file watcher disabled: %v\n", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				if watcher != nil {
					watcher.Close()
				}
				kernel.Dispatch("shutdown", nil)
			}()

			fmt.Printf("tldr daemon serving %s\n", cfg.Project.Root)
			kernel.Serve(ln)
			return nil
		},
	}
}

// buildFilter assembles the workspace filter from project config plus an
// optional .tldrignore, writing the default template when none exists yet
// (spec.md §4.10's advisory step).
func buildFilter(cfg *config.Config) *workspace.Filter {
	filter := workspace.NewFilter(workspace.Config{
		ActivePackages:  cfg.Workspace.ActivePackages,
		ExcludePatterns: cfg.Workspace.ExcludePatterns,
	})
	if cfg.Workspace.RespectTldrignore {
		if m, err := workspace.LoadTldrignore(cfg.Project.Root); err == nil && m != nil {
			filter = filter.WithIgnoreFile(m)
		} else {
			workspace.WriteDefaultTldrignore(cfg.Project.Root)
		}
	}
	return filter
}

// startWatcher walks root, registering every in-scope directory with a
// fsnotify-backed Watcher that feeds changes straight into the kernel's
// notify handling, so reindexing reacts to live edits and not only to
// socket-issued notify calls.
func startWatcher(root string, filter *workspace.Filter, kernel *daemon.Kernel) (*watch.Watcher, error) {
	w, err := watch.New(root, kernel, 300*time.Millisecond)
	if err != nil {
		return nil, err
	}
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && !filter.Included(rel) {
			return filepath.SkipDir
		}
		w.AddDir(path)
		return nil
	})
	go w.Run()
	return w, nil
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Send one command to a running daemon over its socket",
		ArgsUsage: "<command> [key=value ...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("query requires a command name")
			}
			root := c.String("root")
			cmd := c.Args().Get(0)
			args := make(map[string]json.RawMessage)
			for _, kv := range c.Args().Slice()[1:] {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid argument %q, want key=value", kv)
				}
				encoded, err := json.Marshal(parts[1])
				if err != nil {
					return err
				}
				args[parts[0]] = encoded
			}

			conn, err := dial(root)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer conn.Close()

			req := map[string]any{"cmd": cmd}
			for k, v := range args {
				req[k] = v
			}
			line, err := json.Marshal(req)
			if err != nil {
				return err
			}
			if _, err := conn.Write(append(line, '\n')); err != nil {
				return err
			}

			scanner := bufio.NewScanner(conn)
			scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
			if !scanner.Scan() {
				return fmt.Errorf("no response from daemon: %v", scanner.Err())
			}
			fmt.Println(scanner.Text())
			return nil
		},
	}
}

func dial(root string) (net.Conn, error) {
	if daemon.UsesTCP() {
		port, err := daemon.TCPPort(root)
		if err != nil {
			return nil, err
		}
		return net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	}
	sockPath, err := daemon.SocketPath(root)
	if err != nil {
		return nil, err
	}
	return net.Dial("unix", sockPath)
}

// reindexWorkerCommand is the hidden subcommand a running daemon execs as
// a subprocess to rebuild its index in isolation (spec.md §4.9); it shares
// no memory with the daemon and reports its progress only through the
// reindex status file (spec.md §9), never through its own exit code.
func reindexWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:   daemon.ReindexWorkerCommandName,
		Hidden: true,
		Usage:  "internal: run one background reindex pass and exit",
		Action: func(c *cli.Context) error {
			root := c.String("root")
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			filter := buildFilter(cfg)
			return daemon.RunReindexWorker(cfg.Project.Root, filter, cfg.Index.MaxFileSizeByte)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP stdio bridge against a freshly indexed project root",
		Action: func(c *cli.Context) error {
			root := c.String("root")
			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			filter := buildFilter(cfg)
			kernel := daemon.NewKernel(cfg.Project.Root, filter, cfg.Index.MaxFileSizeByte)
			if err := kernel.Start(); err != nil {
				return fmt.Errorf("failed to start indexing: %w", err)
			}
			defer kernel.Shutdown()

			bridge := mcpbridge.New(kernel)
			return bridge.Run(context.Background())
		},
	}
}
