package main

import (
	"gold-price-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
