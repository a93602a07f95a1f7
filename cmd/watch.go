package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/furlinter/furlint/formatter"
	"github.com/furlinter/furlint/internal"
	tt "github.com/furlinter/furlint/internal/types"
	"github.com/furlinter/furlint/lint"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-lint Python files whenever they change",
	Long: `Watches the given directories (default: the current directory) and lints
every Python file that is written, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}

		config, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := lint.NewFromConfig(".", config)
		if err != nil {
			return fmt.Errorf("failed to initialize lint engine: %w", err)
		}

		extensions := config.Extensions
		if len(extensions) == 0 {
			extensions = lint.DefaultConfig().Extensions
		}
		accept := func(path string) bool {
			for _, ext := range extensions {
				if filepath.Ext(path) == ext {
					return true
				}
			}
			return false
		}

		out := cmd.OutOrStdout()
		report := func(filename string, issues []tt.Issue) {
			if len(issues) == 0 {
				return
			}
			sourceCode, err := internal.ReadSourceCode(filename)
			if err != nil {
				logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
				return
			}
			fmt.Fprint(out, formatter.GenerateFormattedIssue(issues, sourceCode))
		}

		watcher := internal.NewWatcher(engine, logger, accept, report, args...)
		if err := watcher.StartWatching(); err != nil {
			return err
		}
		logger.Info("Watching for changes", zap.Strings("dirs", args))

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		return watcher.StopWatching()
	},
}
