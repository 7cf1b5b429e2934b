package main

import "github.com/ayanworks/arnima-agent-go/cmd"

func main() {
	cmd.Execute()
}
