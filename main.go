package main

import "github.com/cppla/snackstopper/cmd"

func main() {
	cmd.Execute()
}
