package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func init() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
