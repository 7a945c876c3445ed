package main

import (
	"cs2panel/internal/cli/cmd"
)

func main() {
	cmd.Execute()
}
