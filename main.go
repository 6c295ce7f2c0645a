package main

import "food-marketplace-api/commands"

func main() {
	commands.Execute()
}
