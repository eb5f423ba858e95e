package main

import (
	"os"

	oagwcmder "github.com/oagwlabs/oagw-go/cmd/oagw"
)

func main() {
	cmd := oagwcmder.NewOagwCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
