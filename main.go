package main

import "github.com/kebairia/snapvault/cmd"

func main() {
	cmd.Execute()
}
