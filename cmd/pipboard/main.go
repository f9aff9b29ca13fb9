package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/daemon"
	"github.com/1broseidon/pipboard/internal/ipc"
	"github.com/1broseidon/pipboard/internal/mcp"
	"github.com/1broseidon/pipboard/internal/platform"
	"github.com/1broseidon/pipboard/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runBoard(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "add":
		os.Exit(runAdd(os.Args[2:]))
	case "remove":
		os.Exit(runRemove(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "expand":
		os.Exit(runExpand(os.Args[2:]))
	case "set":
		os.Exit(runSet(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pipboard <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the board daemon with the TUI (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  windows             List capturable top-level windows")
	fmt.Fprintln(w, "  list                List windows monitored on the board")
	fmt.Fprintln(w, "  add <handle>        Add a window to the board")
	fmt.Fprintln(w, "  remove <handle>     Remove a window from the board")
	fmt.Fprintln(w, "  move <handle> <±n>  Move a window by n board slots")
	fmt.Fprintln(w, "  expand <handle>     Bring a monitored window to the foreground")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  set fps <n>         Set the capture frame rate (1-60)")
	fmt.Fprintln(w, "  set columns <n>     Set the grid width (3-5)")
	fmt.Fprintln(w, "  set auto-min <on|off>  Toggle auto-minimize of expanded windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'pipboard <command> --help' for command-specific options.")
}

func runBoard(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	headless := fs.Bool("headless", false, "run without the TUI, logging to stderr")
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard run [--headless] [--config path]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the board daemon in the foreground.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel, *headless)

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	settings := config.NewSettings(cfg)
	d := daemon.New(backend, settings, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.Start(ctx)

	server, err := ipc.NewServer(d, logger)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer server.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *headless {
		go d.DrainLoop(ctx)
		logger.Info("running headless, press Ctrl+C to stop")
		<-sigCh
		logger.Info("shutting down")
		return 0
	}

	// Stop everything when the TUI exits or a signal arrives.
	errCh := make(chan error, 1)
	go func() {
		errCh <- tui.Run(d)
	}()

	select {
	case <-sigCh:
		cancel()
		return 0
	case err := <-errCh:
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			return 1
		}
		return 0
	}
}

func newLogger(level string, toStderr bool) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if toStderr {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	}
	// The TUI owns the terminal; background loops log nowhere unless
	// debugging headless.
	return slog.New(slog.DiscardHandler)
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard status")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	auto := "off"
	if status.AutoMinimize {
		auto = "on"
	}
	fmt.Printf("Daemon:        running\n")
	fmt.Printf("Clients:       %d\n", status.ClientCount)
	fmt.Printf("FPS:           %d\n", status.FPS)
	fmt.Printf("Columns:       %d\n", status.Columns)
	fmt.Printf("Auto-minimize: %s\n", auto)
	fmt.Printf("Uptime:        %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard windows")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List capturable top-level windows with their handles.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.ListWindows()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if len(data.Windows) == 0 {
		fmt.Println("No windows found.")
		return 0
	}
	for _, w := range data.Windows {
		fmt.Printf("%10d  %s\n", w.Handle, w.Title)
	}
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard list")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.ListClients()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if len(data.Clients) == 0 {
		fmt.Println("Board is empty.")
		return 0
	}
	for _, c := range data.Clients {
		state := "visible"
		if c.Minimized {
			state = "minimized"
		}
		fmt.Printf("%2d  %10d  %-9s  %5.1f%%  %s\n", c.Position, c.Handle, state, c.CPUPercent, c.Title)
	}
	return 0
}

func parseHandle(arg string) (uint32, error) {
	h, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q", arg)
	}
	return uint32(h), nil
}

func runAdd(args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	title := fs.String("title", "", "title override for the board card")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard add [--title name] <handle>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	handle, err := parseHandle(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := ipc.NewClient().AddClient(handle, *title); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Added window %d to the board.\n", handle)
	return 0
}

func runRemove(args []string) int {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard remove <handle>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	handle, err := parseHandle(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := ipc.NewClient().RemoveClient(handle); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Removed window %d from the board.\n", handle)
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard move <handle> <delta>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move a window by delta board slots (negative = towards the front).")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	handle, err := parseHandle(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	delta, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid delta %q\n", fs.Arg(1))
		return 2
	}

	if err := ipc.NewClient().MoveClient(handle, delta); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runExpand(args []string) int {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pipboard expand <handle>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	handle, err := parseHandle(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := ipc.NewClient().Expand(handle); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runSet(args []string) int {
	if len(args) < 1 {
		printSetUsage(os.Stderr)
		return 2
	}

	client := ipc.NewClient()
	switch args[0] {
	case "fps":
		if len(args) != 2 {
			printSetUsage(os.Stderr)
			return 2
		}
		fps, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid fps %q\n", args[1])
			return 2
		}
		if err := client.SetFPS(fps); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case "columns":
		if len(args) != 2 {
			printSetUsage(os.Stderr)
			return 2
		}
		columns, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid column count %q\n", args[1])
			return 2
		}
		if err := client.SetColumns(columns); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case "auto-min":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			printSetUsage(os.Stderr)
			return 2
		}
		if err := client.SetAutoMinimize(args[1] == "on"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case "help", "-h", "--help":
		printSetUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown setting: %s\n\n", args[0])
		printSetUsage(os.Stderr)
		return 2
	}
	return 0
}

func printSetUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pipboard set <setting> <value>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Settings:")
	fmt.Fprintln(w, "  fps <1-60>          Capture frame rate")
	fmt.Fprintln(w, "  columns <3-5>       Board grid width")
	fmt.Fprintln(w, "  auto-min <on|off>   Auto-minimize expanded windows")
}

func runMCP(args []string) int {
	if len(args) < 1 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: pipboard mcp serve")
		return 2
	}

	srv := mcp.NewServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
