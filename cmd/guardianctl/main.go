package main

import "github.com/themattbirch/screen-time-guardian/internal/cli"

func main() {
	cli.Execute()
}
