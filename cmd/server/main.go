package main

import "github.com/Brownie44l1/riceleaf-api/internal/cli"

func main() {
	cli.Execute()
}
