package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/teampulse/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/logging"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the teampulse MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []wiring.Option
		if logLevel != "" {
			// stdout carries the protocol, logs go to stderr.
			opts = append(opts, wiring.WithLogger(logging.New(logLevel, "json")))
		}
		server, err := inframcp.NewServer(ctx, root, opts...)
		if err != nil {
			return MapError(err)
		}
		defer server.Close()

		switch strings.ToLower(mcpTransport) {
		case "stdio", "":
			return server.ServeStdio(ctx)
		case "http":
			return server.ServeHTTP(ctx, mcpAddr)
		default:
			return NewCLIError(fmt.Sprintf("unsupported transport: %s", mcpTransport), "Use --transport stdio or http", nil)
		}
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "127.0.0.1:8421", "Address for the http transport")
	RootCmd.AddCommand(mcpCmd)
}
