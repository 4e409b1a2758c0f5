package main

import "github.com/kernel/geoshot/cmd"

func main() {
	cmd.Execute()
}
