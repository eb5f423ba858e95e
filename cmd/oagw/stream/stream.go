// Package streamcmder provides the stream command for consuming SSE
// responses through the OAGW gateway.
package streamcmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oagwlabs/oagw-go/pkg/cliui"
	"github.com/oagwlabs/oagw-go/pkg/config"
	"github.com/oagwlabs/oagw-go/pkg/logger"
	"github.com/oagwlabs/oagw-go/pkg/oagw"
	"github.com/oagwlabs/oagw-go/pkg/sse"
)

type streamCommander struct {
	method  string
	data    string
	headers []string
	verbose bool
	debug   bool

	cfg    *config.Config
	logger *zap.Logger
}

const streamLongDesc string = `Send one request through the OAGW gateway and print the SSE events from
the response as they arrive. The stream runs until the upstream closes it
or the command is interrupted.

By default only event data is printed, one event per line. With --verbose
each event's id and type are printed too.

Examples:
  oagw stream openai /v1/chat/completions -d '{"model":"gpt-4o","stream":true}'
  oagw stream statusfeed /v1/updates --verbose`

const streamShortDesc string = "Stream SSE events through the gateway"

func NewStreamCmd() *cobra.Command {
	cmder := &streamCommander{}

	cmd := &cobra.Command{
		Use:   "stream <alias> <path>",
		Short: streamShortDesc,
		Long:  streamLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&cmder.method, "request", "X", http.MethodPost, "HTTP method")
	cmd.Flags().StringVarP(&cmder.data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&cmder.headers, "header", "H", nil, "Request header as 'Key: Value' (repeatable)")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Print event id and type alongside data")

	return cmd
}

func (c *streamCommander) run(ctx context.Context, alias, path string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client, err := oagw.NewClient(c.cfg.ClientConfig(), c.logger)
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}
	defer client.Close()

	req, err := c.buildRequest(path)
	if err != nil {
		return err
	}

	resp, err := client.Execute(ctx, alias, req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", alias, err)
	}
	defer resp.Close()

	if resp.Status() >= 400 {
		body, _ := resp.Text(ctx)
		fmt.Fprintf(os.Stderr, "  %s %s\n%s\n",
			cliui.FailMark, cliui.StatusLine(resp.Status(), resp.ErrorSource()), body)
		return fmt.Errorf("gateway call failed with status %d", resp.Status())
	}

	stream, err := resp.Events()
	if err != nil {
		return fmt.Errorf("opening event stream: %w", err)
	}
	defer stream.Close()

	// Close the stream when the context ends so Next unblocks.
	go func() {
		<-ctx.Done()
		_ = stream.Close()
	}()

	for {
		ev, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			return nil
		}
		c.printEvent(ev)
	}
}

func (c *streamCommander) printEvent(ev *sse.Event) {
	if c.verbose {
		fmt.Printf("%s\n%s\n\n", cliui.EventHeader(ev.ID, ev.Type), ev.Data)
		return
	}
	fmt.Println(ev.Data)
}

func (c *streamCommander) buildRequest(path string) (*oagw.Request, error) {
	builder := oagw.NewRequest(path).Method(c.method)

	if c.data != "" {
		builder.Body([]byte(c.data))
		if !hasContentType(c.headers) {
			builder.Header("Content-Type", "application/json")
		}
	}

	for _, h := range c.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q, expected 'Key: Value'", h)
		}
		builder.Header(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	req, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return req, nil
}

func hasContentType(headers []string) bool {
	for _, h := range headers {
		key, _, _ := strings.Cut(h, ":")
		if strings.EqualFold(strings.TrimSpace(key), "Content-Type") {
			return true
		}
	}
	return false
}
