package main

import (
	"gymnasier-export/cmd/gymnasier-export/commands"
)

func main() {
	commands.ExecuteContext(commands.SignalContext())
}
