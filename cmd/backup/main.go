package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"speechcoach/internal/app"
	"speechcoach/internal/config"
	"speechcoach/internal/database"
	"speechcoach/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "backup",
	Short: "Speech Coach database backup tool",
	Long: `Export profiles, exercises and session history to a JSON file, or
import such a file into the configured database.

The database is selected by DATABASE_TYPE (sqlite, postgres, mysql),
DATABASE_PATH for sqlite and DATABASE_URL for postgres and mysql.`,
	SilenceUsage: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		backupService, db, logger, err := openBackupService()
		if err != nil {
			return err
		}
		defer db.Close()

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}
		if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		if err := backupService.Export(cmd.Context(), outputPath); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if info, err := os.Stat(outputPath); err == nil {
			logger.WithField("size_mb", fmt.Sprintf("%.2f", float64(info.Size())/1024/1024)).Info("Export complete")
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON backup into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		clearData, _ := cmd.Flags().GetBool("clear")
		assumeYes, _ := cmd.Flags().GetBool("yes")

		if _, err := os.Stat(inputPath); err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		if clearData && !assumeYes && !confirm(cmd, "WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
			fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
			return nil
		}

		backupService, db, logger, err := openBackupService()
		if err != nil {
			return err
		}
		defer db.Close()

		summary, err := backupService.Import(cmd.Context(), inputPath, service.ImportOptions{Replace: clearData})
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"profiles":  summary.Profiles,
			"exercises": summary.Exercises,
			"sessions":  summary.Sessions,
			"skipped":   summary.SkippedSessions,
		}).Info("Import complete")
		return nil
	},
}

func openBackupService() (*service.BackupService, *database.DB, logrus.FieldLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg.Log)

	db, err := app.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return service.NewBackupService(db, logger), db, logger, nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringP("output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().StringP("input", "i", "", "input file path")
	importCmd.Flags().Bool("clear", false, "clear existing data before import (destructive)")
	importCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt for --clear")
	_ = importCmd.MarkFlagRequired("input")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
