package main

import "github.com/fine405/agentic-wiki/cmd"

func main() {
	cmd.Execute()
}
