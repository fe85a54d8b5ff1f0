package main

import "backlog/cmd/backlog-cli/cmd"

func main() {
	cmd.Execute()
}
