// Package callcmder provides the call command for one-shot requests through
// the OAGW gateway.
package callcmder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oagwlabs/oagw-go/pkg/cliui"
	"github.com/oagwlabs/oagw-go/pkg/config"
	"github.com/oagwlabs/oagw-go/pkg/logger"
	"github.com/oagwlabs/oagw-go/pkg/oagw"
)

type callCommander struct {
	method     string
	data       string
	headers    []string
	timeout    time.Duration
	prettyJSON bool
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
}

const callLongDesc string = `Send one request through the OAGW gateway and print the response body.

The first argument is the service alias registered with the gateway; the
second is the path on the upstream service. The gateway base URL and auth
token come from the config file or OAGW_* environment variables.

Examples:
  oagw call httpbin /get
  oagw call openai /v1/chat/completions -X POST -d '{"model":"gpt-4o"}' -H 'Content-Type: application/json'`

const callShortDesc string = "Send a request through the gateway"

func NewCallCmd() *cobra.Command {
	cmder := &callCommander{}

	cmd := &cobra.Command{
		Use:   "call <alias> <path>",
		Short: callShortDesc,
		Long:  callLongDesc,
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

			return cmder.run(args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&cmder.method, "request", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&cmder.data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&cmder.headers, "header", "H", nil, "Request header as 'Key: Value' (repeatable)")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 0, "Bound the whole exchange (0 uses the configured header timeout)")
	cmd.Flags().BoolVar(&cmder.prettyJSON, "json", false, "Pretty-print a JSON response body")

	return cmd
}

func (c *callCommander) run(alias, path string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	client, err := oagw.NewClient(c.cfg.ClientConfig(), c.logger)
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}
	defer client.Close()

	req, err := c.buildRequest(path)
	if err != nil {
		return err
	}

	resp, err := client.ExecuteBlocking(alias, req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", alias, err)
	}
	defer resp.Close()

	body, err := resp.TextBlocking()
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if c.prettyJSON {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(body), "", "  "); err == nil {
			body = pretty.String()
		}
	}

	fmt.Println(body)

	if resp.Status() >= 400 {
		fmt.Fprintf(os.Stderr, "  %s %s\n", cliui.FailMark, cliui.StatusLine(resp.Status(), resp.ErrorSource()))
		return fmt.Errorf("gateway call failed with status %d", resp.Status())
	}

	return nil
}

func (c *callCommander) buildRequest(path string) (*oagw.Request, error) {
	builder := oagw.NewRequest(path).Method(c.method)

	if c.data != "" {
		builder.Body([]byte(c.data))
	}
	if c.timeout > 0 {
		builder.Timeout(c.timeout)
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
