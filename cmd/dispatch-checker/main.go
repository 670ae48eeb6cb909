package main

import "github.com/oshokin/dispatch-monitor/cmd/dispatch-checker/cmd"

func main() {
	cmd.Execute()
}
