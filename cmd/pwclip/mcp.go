package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/zx06/pwclip/internal/errors"
	mcp_pkg "github.com/zx06/pwclip/internal/mcp"
	"github.com/zx06/pwclip/internal/secret"
)

const defaultMCPHTTPAddr = "127.0.0.1:8788"

// NewMCPCommand creates the MCP command group
func NewMCPCommand() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP (Model Context Protocol) server commands",
	}

	mcpCmd.AddCommand(newMCPServerCommand())

	return mcpCmd
}

// newMCPServerCommand creates the MCP server command
func newMCPServerCommand() *cobra.Command {
	opts := &mcpServerOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start MCP server for AI assistant integration",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.transportSet = cmd.Flags().Changed("transport")
			opts.httpAddrSet = cmd.Flags().Changed("http-addr")
			opts.httpAuthTokenSet = cmd.Flags().Changed("http-auth-token")
			return runMCPServer(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.transport, "transport", mcp_pkg.TransportStdio, "MCP transport: stdio|streamable_http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", defaultMCPHTTPAddr, "Streamable HTTP listen address")
	cmd.Flags().StringVar(&opts.httpAuthToken, "http-auth-token", "", "Streamable HTTP auth token, plain or keyring:<account> (required for streamable_http)")
	return cmd
}

// runMCPServer runs the MCP server
func runMCPServer(ctx context.Context, opts *mcpServerOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	resolved, xe := resolveMCPServerOptions(opts)
	if xe != nil {
		return xe
	}

	ctrl, xe := newController()
	if xe != nil {
		return xe
	}
	logger := cliLogger()

	// Create MCP server using official SDK
	server, err := mcp_pkg.CreateServer(version, ctrl)
	if err != nil {
		// Convert SDK error to XError if needed
		if xe, ok := err.(*errors.XError); ok {
			return xe
		}
		return errors.Wrap(errors.CodeInternal, "failed to create MCP server", nil, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer ctrl.Guard().FirePending()

	// 长驻进程：设置文件被外部修改时立即生效
	go func() {
		if xe := ctrl.WatchSettings(ctx); xe != nil {
			logger.Warn("settings watch disabled", "code", xe.Code, "err", xe.Message)
		}
	}()

	switch resolved.transport {
	case mcp_pkg.TransportStdio:
		return server.Run(ctx, &mcp.StdioTransport{})
	case mcp_pkg.TransportStreamableHTTP:
		if !mcp_pkg.IsLoopbackAddr(resolved.httpAddr) {
			logger.Warn("mcp http server is reachable from other hosts", "addr", resolved.httpAddr)
		}
		handler, err := mcp_pkg.NewStreamableHTTPHandler(server, mcp_pkg.HTTPOptions{
			AuthToken: resolved.httpAuthToken,
			Logger:    logger,
		})
		if err != nil {
			if xe, ok := err.(*errors.XError); ok {
				return xe
			}
			return errors.Wrap(errors.CodeInternal, "failed to create streamable http handler", nil, err)
		}
		httpServer := &http.Server{
			Addr:    resolved.httpAddr,
			Handler: handler,
		}
		go func() {
			<-ctx.Done()
			_ = httpServer.Close()
		}()
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.CodeInternal, "streamable http server failed", map[string]any{"addr": resolved.httpAddr}, err)
		}
		return nil
	default:
		return errors.New(errors.CodeCfgInvalid, "unsupported mcp transport", map[string]any{"transport": resolved.transport})
	}
}

type mcpServerOptions struct {
	transport        string
	transportSet     bool
	httpAddr         string
	httpAddrSet      bool
	httpAuthToken    string
	httpAuthTokenSet bool
	keyring          secret.KeyringAPI
}

type mcpServerResolved struct {
	transport     string
	httpAddr      string
	httpAuthToken string
}

func resolveMCPServerOptions(opts *mcpServerOptions) (mcpServerResolved, *errors.XError) {
	if opts == nil {
		opts = &mcpServerOptions{}
	}

	transport := firstNonEmpty(
		valueIfSet(opts.transportSet, opts.transport),
		os.Getenv("PWCLIP_MCP_TRANSPORT"),
	)
	if transport == "" {
		transport = mcp_pkg.TransportStdio
	}
	if transport != mcp_pkg.TransportStdio && transport != mcp_pkg.TransportStreamableHTTP {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "invalid mcp transport", map[string]any{"transport": transport})
	}

	httpAddr := firstNonEmpty(
		valueIfSet(opts.httpAddrSet, opts.httpAddr),
		os.Getenv("PWCLIP_MCP_HTTP_ADDR"),
	)
	if httpAddr == "" {
		httpAddr = defaultMCPHTTPAddr
	}

	authToken := firstNonEmpty(
		valueIfSet(opts.httpAuthTokenSet, opts.httpAuthToken),
		os.Getenv("PWCLIP_MCP_HTTP_AUTH_TOKEN"),
	)
	if secret.IsKeyringRef(authToken) {
		secretValue, xe := secret.Resolve(authToken, secret.ResolveOptions{Keyring: opts.keyring})
		if xe != nil {
			return mcpServerResolved{}, xe
		}
		authToken = secretValue
	}

	if transport == mcp_pkg.TransportStreamableHTTP && authToken == "" {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "streamable http transport requires auth token", nil)
	}

	return mcpServerResolved{
		transport:     transport,
		httpAddr:      httpAddr,
		httpAuthToken: authToken,
	}, nil
}

func valueIfSet(set bool, value string) string {
	if !set {
		return ""
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
