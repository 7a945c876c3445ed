package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Manage connected players and bans",
}

var playerListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List connected players",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		players, err := Client.GetPlayers(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		if len(players) == 0 {
			fmt.Println("No players connected.")
			return
		}
		for _, p := range players {
			fmt.Printf("#%-4d %-24s %-20s ping %dms  %s\n", p.UserID, p.Name, p.SteamID, p.Ping, p.IP)
		}
	},
}

var kickReason string
var playerKickCmd = &cobra.Command{
	Use:   "kick [id] [userId]",
	Short: "Kick a player by user id",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var userID int
		if _, err := fmt.Sscanf(args[1], "%d", &userID); err != nil {
			log.Fatalf("Error: invalid user id %q", args[1])
		}
		if err := Client.KickPlayer(args[0], userID, kickReason); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Player kicked.")
	},
}

var banMinutes int
var banReason string
var playerBanCmd = &cobra.Command{
	Use:   "ban [id] [steamId]",
	Short: "Ban a player by SteamID",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.BanPlayer(args[0], args[1], banMinutes, banReason); err != nil {
			log.Fatalf("Error: %v", err)
		}
		if banMinutes == 0 {
			fmt.Println("Player banned permanently.")
		} else {
			fmt.Printf("Player banned for %d minutes.\n", banMinutes)
		}
	},
}

var playerMuteCmd = &cobra.Command{
	Use:   "mute [id] [steamId]",
	Short: "Mute a player by SteamID",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.MutePlayer(args[0], args[1]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Player muted.")
	},
}

var playerBansCmd = &cobra.Command{
	Use:   "bans [id]",
	Short: "List active bans",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bans, err := Client.GetBans(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, b := range bans {
			expiry := "permanent"
			if !b.IsPermanent && b.ExpiresAt != nil {
				expiry = "until " + b.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Printf("- %s %-20s %s  %s\n", b.ID, b.SteamID, expiry, b.Reason)
		}
	},
}

var playerUnbanCmd = &cobra.Command{
	Use:   "unban [banId]",
	Short: "Remove a ban",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.Unban(args[0]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Ban removed.")
	},
}

var botQuota, botDifficulty int
var botQuotaMode string
var botsCmd = &cobra.Command{
	Use:   "bots [id]",
	Short: "Show or change bot settings",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("quota") && !cmd.Flags().Changed("mode") && !cmd.Flags().Changed("difficulty") {
			cfg, err := Client.GetBotConfig(args[0])
			if err != nil {
				log.Fatalf("Error: %v", err)
			}
			fmt.Printf("Quota: %d  Mode: %s  Difficulty: %d\n", cfg.Quota, cfg.QuotaMode, cfg.Difficulty)
			return
		}
		cfg, err := Client.GetBotConfig(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		if cmd.Flags().Changed("quota") {
			cfg.Quota = botQuota
		}
		if cmd.Flags().Changed("mode") {
			cfg.QuotaMode = botQuotaMode
		}
		if cmd.Flags().Changed("difficulty") {
			cfg.Difficulty = botDifficulty
		}
		if err := Client.UpdateBotConfig(args[0], *cfg); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Bot settings updated.")
	},
}

func init() {
	playerKickCmd.Flags().StringVar(&kickReason, "reason", "", "Kick reason")
	playerBanCmd.Flags().IntVar(&banMinutes, "minutes", 0, "Ban duration in minutes (0 = permanent)")
	playerBanCmd.Flags().StringVar(&banReason, "reason", "", "Ban reason")
	botsCmd.Flags().IntVar(&botQuota, "quota", 0, "Bot quota")
	botsCmd.Flags().StringVar(&botQuotaMode, "mode", "", "Quota mode (fill, match, normal)")
	botsCmd.Flags().IntVar(&botDifficulty, "difficulty", 0, "Bot difficulty 0-3")

	playerCmd.AddCommand(playerListCmd, playerKickCmd, playerBanCmd, playerMuteCmd, playerBansCmd, playerUnbanCmd)
	RootCmd.AddCommand(playerCmd, botsCmd)
}
