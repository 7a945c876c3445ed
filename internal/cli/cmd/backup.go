package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
}

var backupType string
var backupCreateCmd = &cobra.Command{
	Use:   "create [id]",
	Short: "Create a backup",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		backup, err := Client.CreateBackup(args[0], backupType)
		if err != nil {
			log.Fatalf("Error creating backup: %v", err)
		}
		fmt.Printf("Backup created: %s (%.2f MB)\n", backup.Path, float64(backup.SizeBytes)/1024/1024)
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List backups of an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		backups, err := Client.ListBackups(args[0])
		if err != nil {
			log.Fatalf("Error listing backups: %v", err)
		}
		fmt.Println("Backups:")
		for _, b := range backups {
			fmt.Printf("- %s [%s] %.2f MB  %s\n", b.ID, b.BackupType,
				float64(b.SizeBytes)/1024/1024, b.CreatedAt.Format(time.RFC3339))
		}
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [backupId]",
	Short: "Restore a backup (instance must be stopped)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.RestoreBackup(args[0]); err != nil {
			log.Fatalf("Error restoring backup: %v", err)
		}
		fmt.Println("Backup restored.")
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete [backupId]",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.DeleteBackup(args[0]); err != nil {
			log.Fatalf("Error deleting backup: %v", err)
		}
		fmt.Println("Backup deleted.")
	},
}

func init() {
	backupCreateCmd.Flags().StringVar(&backupType, "type", "full", "Backup type: full, config, maps, plugins")
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd)
	RootCmd.AddCommand(backupCmd)
}
