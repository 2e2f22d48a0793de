package main

import "camgrocer/cmd"

func main() {
	cmd.Execute()
}
