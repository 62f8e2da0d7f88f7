package main

import "github.com/mip-org/mip-core/cmd/mip-prepare/cmd"

func main() {
	cmd.Execute()
}
