package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/platformsh-client/internal/platform"
)

// requestCommandFlags are shared by every command that sends an API request.
func requestCommandFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "method",
			Aliases: []string{"X"},
			Usage:   "HTTP method",
			Value:   http.MethodGet,
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "JSON request body",
		},
	}
}

func (r *runner) subscriptionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "subscriptions",
		Usage: "call the subscriptions endpoint on the accounts host",
		Flags: requestCommandFlags(),
		Action: r.withClient(func(ctx context.Context, cmd *cli.Command, client *platform.Client) error {
			body, err := requestBody(cmd)
			if err != nil {
				return err
			}
			resp, err := client.Subscriptions(ctx, cmd.String("method"), body)
			if err != nil {
				return err
			}
			return r.printResponse(ctx, resp)
		}),
	}
}

func (r *runner) environmentsCommand() *cli.Command {
	return &cli.Command{
		Name:      "environments",
		Usage:     "call a project environment, falling back from the US to the EU region",
		ArgsUsage: "PROJECT [ENVIRONMENT]",
		Flags:     requestCommandFlags(),
		Action: r.withClient(func(ctx context.Context, cmd *cli.Command, client *platform.Client) error {
			if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
				return errors.New("usage: environments PROJECT [ENVIRONMENT]")
			}
			body, err := requestBody(cmd)
			if err != nil {
				return err
			}
			resp, err := client.Environments(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.String("method"), body)
			if err != nil {
				return err
			}
			return r.printResponse(ctx, resp)
		}),
	}
}

func (r *runner) requestCommand() *cli.Command {
	flags := append(requestCommandFlags(), &cli.StringFlag{
		Name:  "region",
		Usage: "explicit region (not supported yet, regions are tried US then EU)",
	})

	return &cli.Command{
		Name:      "request",
		Usage:     "call an arbitrary path on the regional hosts",
		ArgsUsage: "PATH",
		Flags:     flags,
		Action: r.withClient(func(ctx context.Context, cmd *cli.Command, client *platform.Client) error {
			if cmd.Args().Len() != 1 {
				return errors.New("usage: request PATH")
			}
			body, err := requestBody(cmd)
			if err != nil {
				return err
			}
			region := platform.Region(cmd.String("region"))
			resp, err := client.PlatformRequest(ctx, cmd.Args().First(), cmd.String("method"), body, region)
			if err != nil {
				return err
			}
			return r.printResponse(ctx, resp)
		}),
	}
}

// requestBody returns the --data payload, or nil when the flag is unset.
func requestBody(cmd *cli.Command) (any, error) {
	data := cmd.String("data")
	if data == "" {
		return nil, nil
	}
	if !json.Valid([]byte(data)) {
		return nil, errors.New("--data is not valid JSON")
	}
	return json.RawMessage(data), nil
}

// printResponse writes the indented body. Non-2xx responses are printed too.
func (r *runner) printResponse(ctx context.Context, resp *platform.Response) error {
	if !resp.OK() {
		slog.WarnContext(ctx, "api returned non-success status", "status", resp.StatusCode)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body, "", "  "); err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}
	out.WriteByte('\n')

	_, err := out.WriteTo(r.stdout)
	return err
}
