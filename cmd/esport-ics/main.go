package main

import "github.com/snutij/esport-ics/internal/cli"

func main() {
	cli.Execute()
}
