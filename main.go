package main

import "github.com/tanq16/alpnfinder/cmd"

func main() {
	cmd.Execute()
}
