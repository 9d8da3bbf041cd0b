package main

import "github.com/bryanchriswhite/screengrab/cmd/screengrab/commands"

func main() {
	commands.Execute()
}
