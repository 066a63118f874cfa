package main

import (
	"github.com/joho/godotenv"

	"github.com/pmarks/pinbook/cmd"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	cmd.Execute()
}
