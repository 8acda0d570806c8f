package main

import "github.com/aoikanri/aoidata/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
