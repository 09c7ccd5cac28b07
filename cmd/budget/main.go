package main

import "budget/internal/cli"

func main() {
	cli.Execute()
}
