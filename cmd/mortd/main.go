package main

import "github.com/rp011dev/mort-mgmnt-sub000/internal/cli"

func main() {
	cli.Execute()
}
