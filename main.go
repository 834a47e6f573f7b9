package main

import "github.com/nextlevelbuilder/recap/cmd"

func main() {
	cmd.Execute()
}
