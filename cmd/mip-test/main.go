package main

import "github.com/mip-org/mip-core/cmd/mip-test/cmd"

func main() {
	cmd.Execute()
}
