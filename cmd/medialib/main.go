package main

import "medialib/internal/cli"

func main() {
	cli.Execute()
}
