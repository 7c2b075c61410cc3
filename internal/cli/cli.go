// Package cli implements the igdb command-line tool, which runs the same
// game search and lookup as the MCP server directly from a terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
	"github.com/olgasafonova/igdb-mcp-server/internal/igdb"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitFailure = 1
	exitConfig  = 2
	exitUsage   = 64
)

// ExitError is an error that carries a specific process exit code.
// RunE returns this to signal the desired exit code to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ClientFactory builds the IGDB client a command talks to.
type ClientFactory func(logger *slog.Logger) (*igdb.Client, error)

// EnvClientFactory loads the configuration from the environment.
func EnvClientFactory(logger *slog.Logger) (*igdb.Client, error) {
	cfg, err := igdb.LoadConfig()
	if err != nil {
		return nil, err
	}
	return igdb.NewClient(cfg, igdb.WithLogger(logger))
}

// NewRootCmd creates the igdb command tree.
func NewRootCmd(factory ClientFactory, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "igdb",
		Short: "Query the IGDB video game database",
		Long:  "igdb searches the IGDB video game database and prints game details, using a Twitch app access token.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	root.AddCommand(NewSearchCmd(factory, logger))
	root.AddCommand(NewDetailsCmd(factory, logger))
	return root
}

// NewSearchCmd creates the "search" subcommand.
func NewSearchCmd(factory ClientFactory, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search games by title or keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			client, err := newClient(factory, logger)
			if err != nil {
				return err
			}

			result, err := client.SearchGamesMCP(cmd.Context(), igdb.SearchGamesArgs{
				Query: strings.Join(args, " "),
				Limit: limit,
			})
			if err != nil {
				return commandError(err)
			}
			return render(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().Int("limit", igdb.DefaultLimit, fmt.Sprintf("Maximum number of results (max %d)", igdb.MaxLimit))
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

// NewDetailsCmd creates the "details" subcommand.
func NewDetailsCmd(factory ClientFactory, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details <id>",
		Short: "Show the full record for a game id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return exitError(exitUsage, "game id must be an integer, got %q", args[0])
			}

			client, err := newClient(factory, logger)
			if err != nil {
				return err
			}

			result, err := client.GetGameDetailsMCP(cmd.Context(), igdb.GetGameDetailsArgs{GameID: id})
			if err != nil {
				return commandError(err)
			}
			return render(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func newClient(factory ClientFactory, logger *slog.Logger) (*igdb.Client, error) {
	client, err := factory(logger)
	if err != nil {
		if apierrors.IsConfiguration(err) {
			return nil, exitError(exitConfig, "%v (set them in the environment or a .env file)", err)
		}
		return nil, err
	}
	return client, nil
}

// commandError maps operation failures to exit codes
func commandError(err error) error {
	if apierrors.IsValidation(err) {
		return exitError(exitUsage, "%v", err)
	}
	return exitError(exitFailure, "%v", err)
}

type textResult interface {
	Text() string
}

func render(w io.Writer, result textResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprintln(w, result.Text())
	return err
}
