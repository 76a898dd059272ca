package main

import "github.com/Tiliavir/dlog/cmd"

func main() {
	cmd.Execute()
}
