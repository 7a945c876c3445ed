package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"cs2panel/internal/cli/ui"
	"cs2panel/pkg/sdk"
)

var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Manage server instances",
}

var createName, createGameMode, createMap, createRconPassword, createGslt string
var createPort, createMaxPlayers int

var instanceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new instance",
	Run: func(cmd *cobra.Command, args []string) {
		handleCreate()
	},
}

var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all instances",
	Run: func(cmd *cobra.Command, args []string) {
		handleList()
	},
}

var instanceStartCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Start an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handle("start", args[0], Client.StartInstance)
	},
}

var instanceStopCmd = &cobra.Command{
	Use:   "stop [id]",
	Short: "Stop an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handle("stop", args[0], Client.StopInstance)
	},
}

var instanceRestartCmd = &cobra.Command{
	Use:   "restart [id]",
	Short: "Restart an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handle("restart", args[0], Client.RestartInstance)
	},
}

var instanceDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handle("delete", args[0], Client.DeleteInstance)
	},
}

var instanceInstallCmd = &cobra.Command{
	Use:   "install [id]",
	Short: "Install server files via SteamCMD",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handle("install", args[0], Client.InstallServer)
		fmt.Println("Follow progress with: cs2ctl instance console " + args[0])
	},
}

var instanceUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update server files via SteamCMD",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handle("update", args[0], Client.UpdateServer)
	},
}

var instanceConsoleCmd = &cobra.Command{
	Use:   "console [id]",
	Short: "Open the interactive console",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ui.RunConsole(Client, args[0])
	},
}

var instanceRconCmd = &cobra.Command{
	Use:   "rcon [id] [command...]",
	Short: "Run a single RCON command",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		command := ""
		for i, a := range args[1:] {
			if i > 0 {
				command += " "
			}
			command += a
		}
		out, err := Client.SendRCON(args[0], command)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println(out)
	},
}

func init() {
	instanceCreateCmd.Flags().StringVar(&createName, "name", "", "Instance name")
	instanceCreateCmd.Flags().IntVar(&createPort, "port", 0, "Game port (0 picks the next free one)")
	instanceCreateCmd.Flags().IntVar(&createMaxPlayers, "max-players", 0, "Max players")
	instanceCreateCmd.Flags().StringVar(&createGameMode, "game-mode", "", "Game mode")
	instanceCreateCmd.Flags().StringVar(&createMap, "map", "", "Start map")
	instanceCreateCmd.Flags().StringVar(&createRconPassword, "rcon-password", "", "RCON password")
	instanceCreateCmd.Flags().StringVar(&createGslt, "gslt", "", "Game server login token")
	instanceCreateCmd.MarkFlagRequired("name")

	instanceCmd.AddCommand(
		instanceCreateCmd, instanceListCmd, instanceStartCmd, instanceStopCmd,
		instanceRestartCmd, instanceDeleteCmd, instanceInstallCmd,
		instanceUpdateCmd, instanceConsoleCmd, instanceRconCmd,
	)
	RootCmd.AddCommand(instanceCmd)
}

func handle(action, id string, op func(string) error) {
	if err := op(id); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("%s command sent.\n", action)
}

func handleCreate() {
	inst, err := Client.CreateInstance(sdk.InstanceConfig{
		Name:         createName,
		Port:         createPort,
		MaxPlayers:   createMaxPlayers,
		GameMode:     createGameMode,
		Map:          createMap,
		RconPassword: createRconPassword,
		GsltToken:    createGslt,
	})
	if err != nil {
		log.Fatalf("Error creating instance: %v", err)
	}
	fmt.Printf("Created instance %s (%s) on port %d\n", inst.Name, inst.ID, inst.Port)
	fmt.Println("Install server files with: cs2ctl instance install " + inst.ID)
}

func handleList() {
	instances, err := Client.ListInstances()
	if err != nil {
		log.Fatalf("Error listing instances: %v", err)
	}
	fmt.Println("Instances:")
	for _, inst := range instances {
		fmt.Printf("- %s (%s) [%s] Port: %d Map: %s\n", inst.Name, inst.ID, inst.Status, inst.Port, inst.CurrentMap)
	}
}
