package main

import "emotion/cmd"

func main() {
	cmd.Execute()
}
