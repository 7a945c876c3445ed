package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show the server.cfg cvars",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cvars, err := Client.GetServerConfig(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for name, value := range cvars {
			fmt.Printf("%s %s\n", name, value)
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [id] [cvar=value...]",
	Short: "Set cvars, hot-reloading over RCON where possible",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cvars := make(map[string]string)
		for _, pair := range args[1:] {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				log.Fatalf("Error: %q is not of the form cvar=value", pair)
			}
			cvars[name] = value
		}
		result, err := Client.UpdateServerConfig(args[0], cvars)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, name := range result.AppliedLive {
			fmt.Printf("%s applied live\n", name)
		}
		for _, name := range result.RequiresRestart {
			fmt.Printf("%s written, takes effect on restart\n", name)
		}
	},
}

var cvarsQuery string
var configCvarsCmd = &cobra.Command{
	Use:   "cvars",
	Short: "Browse the known cvar database",
	Run: func(cmd *cobra.Command, args []string) {
		defs, err := Client.GetCvars()
		if cvarsQuery != "" {
			defs, err = Client.SearchCvars(cvarsQuery)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, d := range defs {
			hot := ""
			if d.Hot {
				hot = " [hot]"
			}
			fmt.Printf("%-32s default=%-10s %s%s\n", d.Name, d.Default, d.Description, hot)
		}
	},
}

var configPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List game mode presets",
	Run: func(cmd *cobra.Command, args []string) {
		presets, err := Client.GetPresets()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, p := range presets {
			fmt.Printf("- %s: %s (default map %s)\n", p.Name, p.Description, p.DefaultMap)
		}
	},
}

var configApplyPresetCmd = &cobra.Command{
	Use:   "apply-preset [id] [preset]",
	Short: "Apply a game mode preset",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := Client.ApplyPreset(args[0], args[1])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Printf("Preset applied: %d cvars live, %d need a restart\n",
			len(result.AppliedLive), len(result.RequiresRestart))
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage config profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List profiles of an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profiles, err := Client.ListProfiles(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, p := range profiles {
			active := ""
			if p.IsActive {
				active = " (active)"
			}
			fmt.Printf("- %s %s%s\n", p.ID, p.Name, active)
		}
	},
}

var profileSaveCmd = &cobra.Command{
	Use:   "save [id] [name]",
	Short: "Save the current server.cfg as a profile",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cvars, err := Client.GetServerConfig(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		profile, err := Client.SaveProfile(args[0], args[1], cvars)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Printf("Saved profile %s (%s)\n", profile.Name, profile.ID)
	},
}

var profileApplyCmd = &cobra.Command{
	Use:   "apply [profileId]",
	Short: "Apply a saved profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := Client.ApplyProfile(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Printf("Profile applied: %d cvars live, %d need a restart\n",
			len(result.AppliedLive), len(result.RequiresRestart))
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete [profileId]",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.DeleteProfile(args[0]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Profile deleted.")
	},
}

func init() {
	configCvarsCmd.Flags().StringVar(&cvarsQuery, "search", "", "Filter cvars by name or description")
	configCmd.AddCommand(configGetCmd, configSetCmd, configCvarsCmd, configPresetsCmd, configApplyPresetCmd)
	profileCmd.AddCommand(profileListCmd, profileSaveCmd, profileApplyCmd, profileDeleteCmd)
	RootCmd.AddCommand(configCmd, profileCmd)
}
