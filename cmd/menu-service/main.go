package main

import (
	"os"

	"github.com/menucockpit/server/menuservice"
)

func main() {
	if err := menuservice.Run(); err != nil {
		os.Exit(1)
	}
}
