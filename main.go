package main

import "github.com/agentic-research/kaextract/cmd"

func main() {
	cmd.Execute()
}
