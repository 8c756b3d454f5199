package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fintrack/internal/client"
	"fintrack/internal/core"
)

const tokenKey = "token"

var errNotLoggedIn = errors.New("not logged in, run 'finctl login' first")

var listNone client.ListOptions

type apiClient = *client.Client

type deleter interface {
	Delete(ctx context.Context, id string) error
}

// newAPIClient builds a client from the merged flag, env and file config.
func newAPIClient() (*client.Client, error) {
	return client.New(client.Options{
		BaseURL: viper.GetString("api_url"),
		Token:   viper.GetString(tokenKey),
	})
}

// authedClient is newAPIClient for commands that need a session.
func authedClient() (*client.Client, error) {
	if viper.GetString(tokenKey) == "" {
		return nil, errNotLoggedIn
	}
	return newAPIClient()
}

// saveToken persists token to the config file, creating it with 0600
// permissions. An empty token removes the session.
func saveToken(token string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	v.Set(tokenKey, token)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict config permissions: %w", err)
	}
	viper.Set(tokenKey, token)
	return nil
}

// apiError turns client errors into messages for the terminal. An expired
// session also drops the stored token.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, client.ErrUnauthenticated) {
		_ = saveToken("")
		return errors.New("session expired or invalid, run 'finctl login'")
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Field != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Field)
		}
		return errors.New(apiErr.Message)
	}
	return err
}

func jsonOutput() bool {
	return strings.EqualFold(viper.GetString("output"), "json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

// parseAmount reads "12.50" or "12,50" as money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid amount %q", s)
	}
	return core.Cents(cents), nil
}

// parseDate reads YYYY-MM-DD; empty means today.
func parseDate(s string, now time.Time) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.DateOf(now), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// parsePeriod reads YYYY-MM; empty means the current month.
func parsePeriod(s string, now time.Time) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), int(now.Month()), nil
	}
	y, m, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid period %q, want YYYY-MM", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid period %q, want YYYY-MM", s)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid period %q, want YYYY-MM", s)
	}
	if err := core.ValidateMonth(year, month); err != nil {
		return 0, 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return year, month, nil
}

// listOptions converts an optional --month flag into a listing filter.
func listOptions(period string) (client.ListOptions, error) {
	if strings.TrimSpace(period) == "" {
		return client.ListOptions{}, nil
	}
	year, month, err := parsePeriod(period, time.Now())
	if err != nil {
		return client.ListOptions{}, err
	}
	return client.ListOptions{Year: year, Month: month}, nil
}

// deleteCmd builds "delete ID" for one resource.
func deleteCmd(noun string, pick func(apiClient) deleter) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			if err := pick(c).Delete(cmd.Context(), args[0]); err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", noun, args[0])
			return nil
		},
	}
}
