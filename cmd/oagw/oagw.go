// Package oagwcmder
package oagwcmder

import (
	callcmder "github.com/oagwlabs/oagw-go/cmd/oagw/call"
	streamcmder "github.com/oagwlabs/oagw-go/cmd/oagw/stream"
	"github.com/spf13/cobra"
)

const oagwLongDesc string = `oagw forwards HTTP requests through the OAGW gateway to third-party
services registered under an alias.

Make requests using:
  oagw call <alias> <path>      Send a request and print the response
  oagw stream <alias> <path>    Send a request and print SSE events as they arrive`

const oagwShortDesc string = "oagw - OAGW gateway client"

func NewOagwCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oagw",
		Short: oagwShortDesc,
		Long:  oagwLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to a TOML config file")

	// Add subcommands
	cmd.AddCommand(callcmder.NewCallCmd())
	cmd.AddCommand(streamcmder.NewStreamCmd())

	return cmd
}
