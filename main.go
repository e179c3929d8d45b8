package main

import "github.com/maherduit/statement-engine/internal/cli"

func main() {
	cli.Execute()
}
