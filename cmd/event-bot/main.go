package main

import "github.com/major-yy/event-bot/internal/cli"

func main() {
	cli.Execute()
}
