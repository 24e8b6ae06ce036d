package main

import (
	"os"

	"github.com/ezenglish/learning-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
