package main

import (
	"log"

	"github.com/doralyyyyy/Restaurant-Platform/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
