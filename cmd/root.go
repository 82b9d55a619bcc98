/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/blacktop/threadpost/internal/logutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	verboseFlag bool
	timeoutFlag time.Duration
	userFlag    string
)

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadpost",
		Short: "Publish to and manage a Threads account",
		Long: "threadpost drives the Threads API: it publishes text, media and carousel posts, " +
			"replies, edits and deletes them, and looks up profiles and search results. " +
			"Credentials come from THREADS_ACCESS_TOKEN and THREADS_USER_ID, or a .env file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logutil.SetVerbose(verboseFlag)
		},
		Example: `  threadpost post "hello from the terminal"
  threadpost post --image https://example.com/shot.png --topic golang "Release shipped"
  threadpost carousel IMAGE=https://example.com/a.png VIDEO=https://example.com/b.mp4
  echo "piped text" | threadpost reply 17890000000000000`,
	}

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "V", false, "Enable debug logging")
	cmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "Per-request timeout (default 10s)")
	cmd.PersistentFlags().StringVar(&userFlag, "user", "", "Threads user id (overrides THREADS_USER_ID)")
	cmd.PersistentFlags().SortFlags = false

	cmd.AddCommand(
		newPostCommand(),
		newCarouselCommand(),
		newReplyCommand(),
		newGetCommand(),
		newListCommand(),
		newProfileCommand(),
		newDeleteCommand(),
		newLikeCommand(),
		newUnlikeCommand(),
		newRepostCommand(),
		newEditCommand(),
		newSearchCommand(),
		newFollowCommand(),
		newUnfollowCommand(),
		newTokenCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// resolveText picks the post text from --text, positional args or piped stdin.
func resolveText(cmd *cobra.Command, flag string, args []string) (string, error) {
	text := flag

	if len(args) > 0 {
		if text != "" {
			return "", errors.New("provide the text either as an argument or with --text, not both")
		}
		text = strings.Join(args, " ")
	}

	if text != "" {
		return strings.TrimSpace(text), nil
	}

	stdin := cmd.InOrStdin()
	if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
