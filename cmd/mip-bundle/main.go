package main

import "github.com/mip-org/mip-core/cmd/mip-bundle/cmd"

func main() {
	cmd.Execute()
}
