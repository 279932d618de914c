// Command orchsupctl is the operator-facing companion CLI for a running
// supervisor (SPEC_FULL.md §11): list, status, and watch subcommands that
// dial the supervisor's control socket (internal/control) and print what
// they see. It never talks to the host or the tool surface — those are
// reserved for the orchestrator agent (spec §6).
//
// Grounded on internal/cli/sessions_cmd.go (list output shape) and
// internal/cli/spawn_watch.go (polling watch loop).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/orchsup/internal/buildinfo"
	"github.com/kestrel-labs/orchsup/internal/config"
	"github.com/kestrel-labs/orchsup/internal/control"
	"github.com/kestrel-labs/orchsup/internal/tui"
)

const (
	colorReset = "\033[0m"
	colorDim   = "\033[2m"
	colorCyan  = "\033[1;36m"
	colorRed   = "\033[31m"
)

var socketPathFlag string

var rootCmd = &cobra.Command{
	Use:   "orchsupctl",
	Short: "Inspect a running orchsup supervisor",
	Long: colorCyan + "orchsupctl" + colorReset + ` talks to a running orchsup supervisor over
its control socket and prints child-session state. It is a read-only
companion to the supervisor library; it never creates or prompts sessions.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPathFlag, "socket", "", "path to the supervisor's control socket (default: <config-dir>/orchsup.sock)")
	rootCmd.AddCommand(listCmd, statusCmd, watchCmd, dashboardCmd, versionCmd)
}

func resolveSocketPath() string {
	if socketPathFlag != "" {
		return socketPathFlag
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(config.Dir(cwd), "orchsup.sock")
}

func dial() (*control.Client, error) {
	path := resolveSocketPath()
	c, err := control.Dial(path)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}
	return c, nil
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "session-list", "session_list"},
	Short:   "List children across every orchestrator session",
	RunE:    runList,
}

func init() {
	listCmd.Flags().String("orchestrator", "", "only show children of this orchestrator session")
}

func runList(cmd *cobra.Command, args []string) error {
	orchestratorID, _ := cmd.Flags().GetString("orchestrator")

	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	children, err := c.List(orchestratorID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		fmt.Println(colorDim + "  No child sessions." + colorReset)
		return nil
	}
	printTable(children)
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status <child-session-id>",
	Short: "Show one child session's current state",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	child, err := c.Status(args[0], false)
	if err != nil {
		return err
	}
	printTable([]control.WireChildSummary{child})
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch <child-session-id>",
	Short: "Poll a child session's status until it leaves prompt_sent",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	for i := 0; i < 150; i++ {
		child, err := c.Status(args[0], false)
		if err != nil {
			return err
		}
		fmt.Printf("%s  state=%s excerpt=%q\n", time.Now().Format(time.TimeOnly), child.State, child.Excerpt)
		if child.State == "result_received" || child.State == "error" {
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("timed out waiting for %s to leave prompt_sent", args[0])
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive terminal dashboard",
	RunE:    runDashboard,
}

func init() {
	dashboardCmd.Flags().String("orchestrator", "", "only show children of this orchestrator session")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	orchestratorID, _ := cmd.Flags().GetString("orchestrator")

	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	program := tea.NewProgram(tui.New(c, orchestratorID), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print orchsupctl's build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Current()
		fmt.Printf("orchsupctl %s (%s, built %s)\n", info.Version, info.CommitHash, info.BuildDate)
		return nil
	},
}

func printTable(children []control.WireChildSummary) {
	fmt.Println()
	fmt.Println(colorCyan + "  Child sessions" + colorReset)
	fmt.Println(colorDim + "  " + strings.Repeat("-", 60) + colorReset)
	for _, child := range children {
		fmt.Printf("  %-24s %-14s %-14s %s\n", child.ChildSessionID, child.State, child.OrchestratorSessionID, child.Title)
		if child.Excerpt != "" {
			fmt.Printf("    %s%s%s\n", colorDim, child.Excerpt, colorReset)
		}
	}
	fmt.Println()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %s%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}
