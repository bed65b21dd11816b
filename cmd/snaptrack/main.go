package main

import "github.com/mathlens/snaptrack/internal/cli"

func main() {
	cli.Execute()
}
