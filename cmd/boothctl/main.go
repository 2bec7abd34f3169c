package main

import "github.com/boothmap/boothmap/cmd/boothctl/cmd"

func main() {
	cmd.Execute()
}
