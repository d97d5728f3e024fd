package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	todomcp "github.com/valter-silva-au/todo/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the todo MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the todo MCP server on stdio",
	Long: `Start the todo MCP server on stdio transport.

The server exposes the task list as MCP tools that AI assistants can call:
list_tasks, add_task, update_task, delete_task, toggle_task, clear_completed,
sort_tasks, set_filter, get_stats, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		srv := todomcp.NewServer(Store, MetricsCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if Logger != nil {
			Logger.Debug("mcp server starting", "transport", "stdio")
		}
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
