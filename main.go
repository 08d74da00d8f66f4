package main

import (
	"os"

	"github.com/studentrep/portal/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
