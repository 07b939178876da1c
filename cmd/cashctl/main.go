package main

import "github.com/cashflowgame/server/internal/cli"

func main() {
	cli.Execute()
}
