package main

import "rbac-center/commands"

func main() {
	commands.Execute()
}
