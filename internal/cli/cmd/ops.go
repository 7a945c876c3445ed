package cmd

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage scheduled tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List tasks of an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tasks, err := Client.ListTasks(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, t := range tasks {
			state := "disabled"
			if t.Enabled {
				state = "enabled"
			}
			next := "-"
			if t.NextRun != nil {
				next = t.NextRun.Format(time.RFC3339)
			}
			fmt.Printf("- %s %-20s %-12s [%s] %s  next: %s\n", t.ID, t.Name, t.Action, state, t.CronExpr, next)
		}
	},
}

var taskName, taskAction, taskPayload string
var taskCreateCmd = &cobra.Command{
	Use:   "create [id] [cronExpr]",
	Short: "Create a scheduled task",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := Client.CreateTask(args[0], taskName, args[1], taskAction, taskPayload)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Printf("Task created: %s\n", task.ID)
	},
}

var taskEnableCmd = &cobra.Command{
	Use:   "enable [taskId]",
	Short: "Enable a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.SetTaskEnabled(args[0], true); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Task enabled.")
	},
}

var taskDisableCmd = &cobra.Command{
	Use:   "disable [taskId]",
	Short: "Disable a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.SetTaskEnabled(args[0], false); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Task disabled.")
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [taskId]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.DeleteTask(args[0]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Task deleted.")
	},
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run tick rate benchmarks",
}

var benchBots, benchStep, benchDuration int
var benchmarkRunCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Start a benchmark run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.RunBenchmark(args[0], benchBots, benchStep, benchDuration); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Benchmark started.")
	},
}

var benchmarkStopCmd = &cobra.Command{
	Use:   "stop [id]",
	Short: "Stop a running benchmark",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.StopBenchmark(args[0]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Benchmark stopped.")
	},
}

var benchmarkResultsCmd = &cobra.Command{
	Use:   "results [id]",
	Short: "Show past benchmark results",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		results, err := Client.GetBenchmarkResults(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, r := range results {
			fmt.Printf("%s  bots=%-3d avg=%.1f min=%.1f cpu=%.1f%% ram=%.0fMB\n",
				r.CreatedAt.Format(time.RFC3339), r.BotCount, r.AvgTickrate, r.MinTickrate, r.CPUUsage, r.RAMUsage)
		}
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics [id]",
	Short: "Show recent metrics",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		history, err := Client.GetMetrics(args[0], metricsMinutes)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, s := range history {
			fmt.Printf("%s  cpu=%.1f%% ram=%.0fMB tick=%.1f players=%d\n",
				s.Timestamp.Format("15:04:05"), s.CPUPct, s.RAMMb, s.TickRate, s.Players)
		}
	},
}
var metricsMinutes int

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage server plugins",
}

var pluginListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List known plugins and their install state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plugins, err := Client.ListPlugins(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, p := range plugins {
			state := "not installed"
			if p.Installed {
				state = "installed"
			}
			fmt.Printf("- %-20s %s\n", p.Name, state)
		}
	},
}

var pluginInstallCmd = &cobra.Command{
	Use:   "install [id] [name]",
	Short: "Download and install a plugin",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.InstallPlugin(args[0], args[1]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Plugin installed.")
	},
}

var workshopCmd = &cobra.Command{
	Use:   "workshop",
	Short: "Manage workshop content",
}

var workshopListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List downloaded workshop items",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		items, err := Client.ListWorkshopItems(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, item := range items {
			state := "pending"
			if item.Installed {
				state = "installed"
			}
			fmt.Printf("- %d [%s] %s\n", item.WorkshopID, state, item.Title)
		}
	},
}

var workshopDownloadCmd = &cobra.Command{
	Use:   "download [id] [workshopId]",
	Short: "Download a workshop map",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		workshopID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("Error: invalid workshop id %q", args[1])
		}
		if err := Client.DownloadWorkshopMap(args[0], workshopID); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Download started.")
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the daemon audit log",
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := Client.GetAuditLog(auditLimit)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, e := range entries {
			fmt.Printf("%s  %-24s %s\n", e.CreatedAt.Format(time.RFC3339), e.Action, e.Target)
		}
	},
}
var auditLimit int

func init() {
	taskCreateCmd.Flags().StringVar(&taskName, "name", "", "Task name")
	taskCreateCmd.Flags().StringVar(&taskAction, "action", "", "Action: rcon, backup, restart")
	taskCreateCmd.Flags().StringVar(&taskPayload, "payload", "", "RCON command or backup type")
	taskCreateCmd.MarkFlagRequired("action")

	benchmarkRunCmd.Flags().IntVar(&benchBots, "bots", 20, "Max bots")
	benchmarkRunCmd.Flags().IntVar(&benchStep, "step", 5, "Bots added per step")
	benchmarkRunCmd.Flags().IntVar(&benchDuration, "duration", 30, "Seconds per step")

	metricsCmd.Flags().IntVar(&metricsMinutes, "minutes", 60, "History window in minutes")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 100, "Max entries")

	taskCmd.AddCommand(taskListCmd, taskCreateCmd, taskEnableCmd, taskDisableCmd, taskDeleteCmd)
	benchmarkCmd.AddCommand(benchmarkRunCmd, benchmarkStopCmd, benchmarkResultsCmd)
	pluginCmd.AddCommand(pluginListCmd, pluginInstallCmd)
	workshopCmd.AddCommand(workshopListCmd, workshopDownloadCmd)
	RootCmd.AddCommand(taskCmd, benchmarkCmd, metricsCmd, pluginCmd, workshopCmd, auditCmd)
}
