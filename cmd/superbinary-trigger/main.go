package main

import "github.com/oshokin/superbinary-trigger/cmd/superbinary-trigger/cmd"

func main() {
	cmd.Execute()
}
