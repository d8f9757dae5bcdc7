package main

import "ralph-xpert/internal/cli"

func main() {
	cli.Execute()
}
