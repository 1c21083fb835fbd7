package main

import "github.com/ethosn-tools/fused-pass-planner/cmd"

func main() {
	cmd.Execute()
}
