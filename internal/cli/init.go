package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/pkg/models"
)

// ProjectInit is set by app wiring.
var ProjectInit core.ProjectInitializer

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Prepare a directory to hold a task list",
	Long: `Write a .todoconfig for the chosen storage backend, create the data
directory and add local state to .gitignore.

Running init again is harmless: anything that already exists is left as is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectInit == nil {
			return fmt.Errorf("project initializer not initialized")
		}

		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		root, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", target, err)
		}

		backend, _ := cmd.Flags().GetString("backend")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		res, err := ProjectInit.Init(core.InitConfig{
			BasePath: root,
			Backend:  models.StorageBackend(backend),
			DataDir:  dataDir,
		})
		if err != nil {
			return fmt.Errorf("initializing %s: %w", root, err)
		}

		out := cmd.OutOrStdout()
		listPaths(out, root, "Created", res.Created)
		listPaths(out, root, "Kept existing", res.Skipped)
		fmt.Fprintf(out, "Task list ready in %s (%s backend)\n", root, backend)
		return nil
	},
}

func listPaths(w io.Writer, root, heading string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", heading)
	for _, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func init() {
	initCmd.Flags().String("backend", string(models.BackendFile), "Storage backend: file or sqlite")
	initCmd.Flags().String("data-dir", ".todo", "Data directory, relative to the project")
	_ = initCmd.RegisterFlagCompletionFunc("backend", cobra.FixedCompletions(
		[]string{string(models.BackendFile), string(models.BackendSQLite)}, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.AddCommand(initCmd)
}
