package main

import "github.com/twiced-technology-gmbh/taskplan/cmd"

func main() {
	cmd.Execute()
}
