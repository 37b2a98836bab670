package main

import "github.com/yyyyyan/wonderline-server/cmd"

func main() {
	cmd.Run()
}
