package main

import "github.com/mip-org/mip-core/cmd/mip-index/cmd"

func main() {
	cmd.Execute()
}
