package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all tasks to a JSON backup file",
	Long: `Write every task, regardless of filter, to a JSON backup file.

The file is named after export.filename in .todoconfig and written to the
project directory unless --dir is given. Use --stdout to print instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Gateway == nil {
			return fmt.Errorf("task store not initialized")
		}

		tasks := Store.State().Tasks
		if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
			return Gateway.Export(tasks, os.Stdout)
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = BasePath
		}
		path, err := Gateway.ExportToFile(tasks, dir)
		if err != nil {
			return fmt.Errorf("exporting tasks: %w", err)
		}

		fmt.Printf("Exported %d task(s) to %s\n", len(tasks), path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all tasks with the contents of a JSON backup",
	Long: `Read a JSON backup written by "todo export" and replace the whole task
list with it. The file must hold an array of tasks with unique ids and names.
Nothing is changed when the file is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Gateway == nil {
			return fmt.Errorf("task store not initialized")
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		tasks, err := Gateway.ImportFromFile(path)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidFormat) {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		Store.Reload()

		if Events != nil {
			if err := Events.LogEvent("tasks.imported", map[string]any{"count": len(tasks)}); err != nil && Logger != nil {
				Logger.Warn("recording import event", "err", err)
			}
		}

		fmt.Printf("Imported %d task(s) from %s\n", len(tasks), args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "Directory to write the backup to (default: project directory)")
	exportCmd.Flags().Bool("stdout", false, "Print the backup instead of writing a file")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
