package cmd

import (
	"fmt"
	"io"

	"github.com/blacktop/threadpost/threads"
	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "exchange",
			Short: "Exchange a short-lived token for a long-lived one",
			Long: "exchange trades THREADS_ACCESS_TOKEN for a long-lived token using THREADS_CLIENT_SECRET. " +
				"The new token is printed; store it yourself.",
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := loadSettings()
				if err != nil {
					return err
				}
				if s.ClientSecret == "" {
					return MissingEnvError{Variables: []string{envClientSecret}}
				}
				return threads.With(s.clientConfig(), func(client *threads.Client) error {
					tok, err := client.ExchangeLongLivedToken(cmd.Context(), s.ClientSecret)
					if err != nil {
						return err
					}
					printToken(cmd.OutOrStdout(), tok)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Refresh a long-lived token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(func(client *threads.Client) error {
					tok, err := client.RefreshAccessToken(cmd.Context())
					if err != nil {
						return err
					}
					printToken(cmd.OutOrStdout(), tok)
					return nil
				})
			},
		},
	)

	return cmd
}

func printToken(out io.Writer, tok *threads.Token) {
	fmt.Fprintf(out, "%s=%s\n", envAccessToken, tok.AccessToken)
	if tok.ExpiresIn > 0 {
		fmt.Fprintf(out, "# expires in %s\n", tok.ExpiresIn)
	}
}
