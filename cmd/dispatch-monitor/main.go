package main

import "github.com/oshokin/dispatch-monitor/cmd/dispatch-monitor/cmd"

func main() {
	cmd.Execute()
}
