package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/blacktop/threadpost/internal/logutil"
	"github.com/blacktop/threadpost/threads"
	"github.com/joho/godotenv"
)

const (
	envAccessToken  = "THREADS_ACCESS_TOKEN"
	envUserID       = "THREADS_USER_ID"
	envBaseURL      = "THREADS_BASE_URL"
	envClientSecret = "THREADS_CLIENT_SECRET"
)

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return "threads credentials not configured"
	}
	return fmt.Sprintf("threads credentials not configured (missing %s)", strings.Join(e.Variables, ", "))
}

type settings struct {
	AccessToken  string
	UserID       string
	BaseURL      string
	ClientSecret string
}

// loadSettings reads a .env file when present and then the environment.
func loadSettings() (settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logutil.Warnf("loading .env failed: %v", err)
	}

	s := settings{
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		UserID:       strings.TrimSpace(os.Getenv(envUserID)),
		BaseURL:      strings.TrimSpace(os.Getenv(envBaseURL)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
	}
	if userFlag != "" {
		s.UserID = userFlag
	}

	if s.AccessToken == "" {
		return settings{}, MissingEnvError{Variables: []string{envAccessToken}}
	}
	return s, nil
}

func (s settings) clientConfig() threads.Config {
	return threads.Config{
		AccessToken: s.AccessToken,
		UserID:      s.UserID,
		BaseURL:     s.BaseURL,
		Timeout:     timeoutFlag,
	}
}

// withClient loads settings and runs fn with a client that is closed afterwards.
func withClient(fn func(*threads.Client) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	return threads.With(s.clientConfig(), fn)
}
