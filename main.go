package main

import "github.com/dzjyyds666/goini/cmd"

func main() {
	cmd.Execute()
}
