package cmd

import (
	"cs2panel/internal/cli/ui"
)

func RunDashboard() {
	for {
		instanceID := ui.RunDashboard(Client)
		if instanceID == "" {
			break
		}
		back := ui.RunConsole(Client, instanceID)
		if !back {
			break
		}
	}
}
