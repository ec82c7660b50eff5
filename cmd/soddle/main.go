package main

import "github.com/mcoot/soddle/internal/cli"

func main() {
	cli.Execute()
}
