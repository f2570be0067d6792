package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourusername/grid-dock/internal/client"
	"github.com/yourusername/grid-dock/internal/config"
	"github.com/yourusername/grid-dock/internal/daemon"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/output"
)

var (
	configPath string
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool
	debugMode  bool

	cfg *config.Config

	// Color functions
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	keyColor     = color.New(color.FgYellow)
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "griddock",
	Short: "Keep grouped windows docked together",
	Long: `griddock tracks top-level windows and keeps groups of them glued along
their shared edges: moving or resizing one window carries the rest of its
group along.

Run "griddock daemon" once per session; the other commands talk to it.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		level := cfg.Settings.LogLevel
		if debugMode {
			level = "debug"
		}
		if err := logging.Init(level); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		if socketPath == "" {
			socketPath = cfg.Settings.SocketPath
		}
		return nil
	},
}

// daemonCmd runs the coordinator
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the griddock daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Settings.SocketPath = socketPath

		d, err := daemon.New(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logging.Info().Str("socket", socketPath).Msg("Daemon starting")
		if !jsonOutput {
			successColor.Print("✓ ")
			fmt.Printf("griddock listening on %s\n", socketPath)
		}
		return d.Run(ctx)
	},
}

// pingCmd tests daemon connectivity
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection to the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		start := time.Now()
		result, err := c.Ping(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}

		if jsonOutput {
			return printJSON(result)
		}
		successColor.Println("✓ Pong received")
		fmt.Printf("Response time: %v\n", elapsed)
		if uptime, ok := result["uptime"].(string); ok {
			fmt.Printf("Daemon uptime: %s\n", uptime)
		}
		return nil
	},
}

// trackCmd starts tracking a window
var trackCmd = &cobra.Command{
	Use:   "track <window-id> <app-uuid> [name]",
	Short: "Start tracking a window",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}
		name := ""
		if len(args) > 2 {
			name = args[2]
		}

		c := newClient()
		defer c.Close()

		if err := c.Track(context.Background(), id, args[1], name); err != nil {
			return fmt.Errorf("failed to track window %d: %w", id, err)
		}
		printSuccess(fmt.Sprintf("Tracking window %d", id))
		return nil
	},
}

// untrackCmd stops tracking a window
var untrackCmd = &cobra.Command{
	Use:   "untrack <window-id>",
	Short: "Stop tracking a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		res, err := c.Untrack(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to untrack window %d: %w", id, err)
		}
		return printMembership(fmt.Sprintf("Untracked window %d", id), res)
	},
}

// joinCmd adds a window to another window's group
var joinCmd = &cobra.Command{
	Use:   "join <window-id> <target-id>",
	Short: "Add a window to the target window's group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPair(args, "joined", (*client.Client).Join)
	},
}

// mergeCmd merges two groups
var mergeCmd = &cobra.Command{
	Use:   "merge <window-id> <target-id>",
	Short: "Merge the window's whole group into the target window's group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPair(args, "merged into", (*client.Client).Merge)
	},
}

// leaveCmd removes a window from its group
var leaveCmd = &cobra.Command{
	Use:   "leave <window-id>",
	Short: "Remove a window from its group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		res, err := c.Leave(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to leave group: %w", err)
		}
		return printMembership(fmt.Sprintf("Window %d left group %s", id, res.Group), res)
	},
}

var (
	showSketch  bool
	showASCII   bool
	showUnicode bool
	showNoIDs   bool
	showWidth   int
	showHeight  int
)

// groupsCmd lists groups
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List groups and tracked windows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		res, err := c.Groups(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}

		if jsonOutput {
			return printJSON(res)
		}
		if showSketch {
			output.PrintVisualization(os.Stdout, res, visualizationOptions())
			return nil
		}
		output.PrintGroupsTable(os.Stdout, res)
		return nil
	},
}

var moveDelta struct{ x, y, width, height int }

// moveCmd moves or resizes a window by a delta
var moveCmd = &cobra.Command{
	Use:   "move <window-id>",
	Short: "Move or resize a window by a delta, carrying its group along",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		res, err := c.UpdateBounds(context.Background(), id, map[string]interface{}{
			"x":      moveDelta.x,
			"y":      moveDelta.y,
			"width":  moveDelta.width,
			"height": moveDelta.height,
		})
		if err != nil {
			return fmt.Errorf("move failed: %w", err)
		}
		return printMove(res)
	},
}

// setBoundsCmd sets a window's visible bounds
var setBoundsCmd = &cobra.Command{
	Use:   "set-bounds <window-id>",
	Short: "Set a window's visible bounds; omitted fields keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}

		bounds := map[string]interface{}{}
		for _, name := range []string{"x", "y", "width", "height"} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetInt(name)
				bounds[name] = v
			}
		}
		if len(bounds) == 0 {
			return fmt.Errorf("at least one of --x, --y, --width, --height is required")
		}

		c := newClient()
		defer c.Close()

		res, err := c.SetBounds(context.Background(), id, bounds)
		if err != nil {
			return fmt.Errorf("set-bounds failed: %w", err)
		}
		return printMove(res)
	},
}

var watchFilter struct{ uuid, name, event string }

// watchCmd streams events
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream bounds and group events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := newClient()
		defer c.Close()

		filter := map[string]interface{}{
			"uuid":  watchFilter.uuid,
			"name":  watchFilter.name,
			"event": watchFilter.event,
		}
		err := c.Subscribe(ctx, filter, func(ev *models.Event) {
			if jsonOutput {
				printJSON(ev)
				return
			}
			output.PrintEvent(os.Stdout, ev)
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

// configCmd groups config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

// configShowCmd shows the effective config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cfg)
	},
}

// configValidateCmd validates a config file
var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		c, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		successColor.Println("✓ Configuration is valid")
		fmt.Printf("  Backend: %s\n", c.Settings.Backend)
		fmt.Printf("  Poll interval: %s\n", c.Settings.PollInterval)
		fmt.Printf("  Remotes: %d\n", len(c.Remotes))
		fmt.Printf("  App Rules: %d\n", len(c.AppRules))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/griddock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon socket path (default from config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(untrackCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(leaveCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(setBoundsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	// Add groups flags
	groupsCmd.Flags().BoolVar(&showSketch, "show", false, "Sketch each group's windows")
	groupsCmd.Flags().BoolVar(&showASCII, "ascii", false, "Force ASCII mode (no Unicode)")
	groupsCmd.Flags().BoolVar(&showUnicode, "unicode", false, "Force Unicode mode")
	groupsCmd.Flags().BoolVar(&showNoIDs, "no-ids", false, "Hide window IDs")
	groupsCmd.Flags().IntVar(&showWidth, "width", 0, "Override terminal width")
	groupsCmd.Flags().IntVar(&showHeight, "height", 0, "Override sketch height")

	// Add move flags
	moveCmd.Flags().IntVar(&moveDelta.x, "dx", 0, "Move the left edge")
	moveCmd.Flags().IntVar(&moveDelta.y, "dy", 0, "Move the top edge")
	moveCmd.Flags().IntVar(&moveDelta.width, "dw", 0, "Change the width")
	moveCmd.Flags().IntVar(&moveDelta.height, "dh", 0, "Change the height")

	// Add set-bounds flags
	setBoundsCmd.Flags().Int("x", 0, "Visible left edge")
	setBoundsCmd.Flags().Int("y", 0, "Visible top edge")
	setBoundsCmd.Flags().Int("width", 0, "Visible width")
	setBoundsCmd.Flags().Int("height", 0, "Visible height")

	// Add watch flags
	watchCmd.Flags().StringVar(&watchFilter.uuid, "uuid", "", "Only events for this app uuid")
	watchCmd.Flags().StringVar(&watchFilter.name, "name", "", "Only events for this window name")
	watchCmd.Flags().StringVar(&watchFilter.event, "event", "", "Only this event name")
}

func main() {
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

// Helper functions

func newClient() *client.Client {
	return client.NewClient(socketPath, timeout)
}

func parseWindowID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

func runPair(args []string, verb string, call func(*client.Client, context.Context, uint32, uint32) (*models.MembershipResult, error)) error {
	id, err := parseWindowID(args[0])
	if err != nil {
		return err
	}
	target, err := parseWindowID(args[1])
	if err != nil {
		return err
	}

	c := newClient()
	defer c.Close()

	res, err := call(c, context.Background(), id, target)
	if err != nil {
		return fmt.Errorf("window %d %s %d: %w", id, verb, target, err)
	}
	return printMembership(fmt.Sprintf("Window %d %s group %s", id, verb, res.Group), res)
}

func printMembership(msg string, res *models.MembershipResult) error {
	if jsonOutput {
		return printJSON(res)
	}
	if res.Deferred {
		keyColor.Print("⧗ ")
		fmt.Println(msg, "(deferred until the current drag ends)")
		return nil
	}
	printSuccess(msg)
	return nil
}

func printMove(res *models.MoveResult) error {
	if jsonOutput {
		return printJSON(res)
	}
	b := res.Bounds
	printSuccess(fmt.Sprintf("Moved %d window(s); now at %d,%d %dx%d", res.Moved, b.X, b.Y, b.Width, b.Height))
	return nil
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printSuccess(msg string) {
	if jsonOutput {
		return
	}
	successColor.Print("✓ ")
	fmt.Println(msg)
}

func printError(msg string) {
	if noColor {
		fmt.Fprintln(os.Stderr, "Error:", msg)
		return
	}
	errorColor.Fprint(os.Stderr, "✗ Error: ")
	fmt.Fprintln(os.Stderr, msg)
}

// visualizationOptions builds options from flags
func visualizationOptions() output.VisualizationOptions {
	opts := output.DefaultVisualizationOptions()

	// Override with flags if set
	if showASCII {
		opts.UseUnicode = false
	}
	if showUnicode {
		opts.UseUnicode = true
	}
	if showNoIDs {
		opts.ShowIDs = false
	}
	if showWidth > 0 {
		opts.MaxWidth = showWidth
	}
	if showHeight > 0 {
		opts.MaxHeight = showHeight
	}

	return opts
}
