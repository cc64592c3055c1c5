package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smazurov/sidecarhost/internal/api/models"
	"github.com/smazurov/sidecarhost/internal/config"
	"github.com/spf13/cobra"
)

// ErrPortUnknown is returned when the host answered but the backend has not
// reported a port within the timeout.
var ErrPortUnknown = errors.New("backend port unknown")

// portOptions are resolved with the same precedence as the host itself.
type portOptions struct {
	Config       string
	Addr         string `toml:"server.addr" env:"SERVER_ADDR"`
	Timeout      string `toml:"query.timeout" env:"QUERY_TIMEOUT"`
	AuthUsername string `toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `toml:"auth.password" env:"AUTH_PASSWORD"`
}

// CreatePortCmd creates the port command.
func CreatePortCmd() *cobra.Command {
	opts := &portOptions{}

	cmd := &cobra.Command{
		Use:   "port",
		Short: "Print the backend port of a running host",
		Long: `Asks a running host for the port its backend announced and prints it. ` +
			`Waits up to --timeout for the backend to report and exits non-zero if it never does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return err
			}
			timeout, err := time.ParseDuration(opts.Timeout)
			if err != nil {
				return fmt.Errorf("invalid timeout %q: %w", opts.Timeout, err)
			}

			port, err := fetchPort(cmd.Context(), opts, timeout)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "sidecarhost.toml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8091", "Address of the host API")
	cmd.Flags().StringVar(&opts.Timeout, "timeout", "5s", "How long to wait for the backend port")
	cmd.Flags().StringVar(&opts.AuthUsername, "auth-username", "", "Basic auth username")
	cmd.Flags().StringVar(&opts.AuthPassword, "auth-password", "", "Basic auth password")

	return cmd
}

func portURL(addr string, timeout time.Duration) string {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	query := url.Values{"timeout": {timeout.String()}}
	return strings.TrimRight(base, "/") + "/api/backend/port?" + query.Encode()
}

func fetchPort(ctx context.Context, opts *portOptions, timeout time.Duration) (uint16, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, portURL(opts.Addr, timeout), nil)
	if err != nil {
		return 0, err
	}
	if opts.AuthUsername != "" {
		req.SetBasicAuth(opts.AuthUsername, opts.AuthPassword)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach host at %s: %w", opts.Addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("host returned %s", resp.Status)
	}

	var data models.PortData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode port response: %w", err)
	}
	if !data.Known || data.Port == nil {
		return 0, ErrPortUnknown
	}
	return *data.Port, nil
}
