package main

import "event-dashboard/cli"

func main() {
	cli.Execute()
}
