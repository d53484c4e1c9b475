package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/platformsh-client/internal/app"
	"github.com/florianilch/platformsh-client/internal/platform"
)

func (r *runner) authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "manage credentials",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "store an API token in the configured file or keyring storage",
				Action: r.withConfig(r.loginAction),
			},
			{
				Name:  "token",
				Usage: "exchange the API token for a session token and print it",
				Action: r.withClient(func(ctx context.Context, cmd *cli.Command, client *platform.Client) error {
					token, err := client.MintSessionToken(ctx)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(r.stdout, token.AccessToken)
					return err
				}),
			},
		},
	}
}

func (r *runner) loginAction(ctx context.Context, _ *cli.Command, cfg *app.Config) error {
	token, err := r.readAPIToken()
	if err != nil {
		return fmt.Errorf("reading api token: %w", err)
	}
	return app.SaveAPIToken(ctx, cfg, token)
}

// readAPIToken prompts without echo on a terminal and reads one line otherwise.
func (r *runner) readAPIToken() (string, error) {
	if f, ok := r.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(r.stderr, "API token: ")
		secret, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(r.stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	scanner := bufio.NewScanner(r.stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no api token on stdin")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
