package main

import (
	"context"

	"catemirror/cmd/catemirror/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
