package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ggufctl/internal/app"
	"ggufctl/internal/httpapi"
	"ggufctl/internal/manager"
	"ggufctl/pkg/types"
)

// shutdownTimeout bounds the control API's graceful shutdown.
const shutdownTimeout = 5 * time.Second

// signalContext is swapped out by tests.
var signalContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func modelsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models found in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := s.app.ListModels()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tMULTIMODAL\tPATH")
			for _, m := range models {
				kind := "file"
				if m.Alias {
					kind = "alias"
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", m.ID, kind, m.Multimodal, m.Path)
			}
			return tw.Flush()
		},
	}
}

// launchFlags are shared by the commands that start llama-server.
type launchFlags struct {
	ctxSize int
	verbose bool
	open    bool
}

func (f *launchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.ctxSize, "ctx", 0, "Context size passed as -c (defaults to ctx_size)")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Stream llama-server output instead of the status line")
	cmd.Flags().BoolVar(&f.open, "open", false, "Open the server URL in a browser once ready")
}

func (s *session) launch(ctx context.Context, model string, f launchFlags) (*manager.Handle, error) {
	return s.app.Launch(ctx, app.LaunchOptions{
		Model:       model,
		ContextSize: f.ctxSize,
		Verbose:     f.verbose,
		OpenBrowser: f.open,
	})
}

// promptFlags are shared by prompt and run.
type promptFlags struct {
	protocol string
	system   []string
	image    string
	grammar  string
	schema   string
}

func (f *promptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.protocol, "protocol", "openai", "Request protocol: openai|native")
	cmd.Flags().StringArrayVar(&f.system, "system", nil, "System prompt line (repeatable)")
	cmd.Flags().StringVar(&f.image, "image", "", "Image path or http(s) URL to attach")
	cmd.Flags().StringVar(&f.grammar, "grammar", "", "Grammar name under grammars_dir (native protocol)")
	cmd.Flags().StringVar(&f.schema, "schema", "", "JSON schema name under schemas_dir")
}

func (f promptFlags) request(text string) types.PromptRequest {
	return types.PromptRequest{
		Prompt:   text,
		System:   f.system,
		Image:    f.image,
		Protocol: f.protocol,
		Grammar:  f.grammar,
		Schema:   f.schema,
	}
}

func (s *session) prompt(cmd *cobra.Command, req types.PromptRequest) error {
	resp, err := s.app.Prompt(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
	return nil
}

func launchCmd(s *session) *cobra.Command {
	var lf launchFlags
	cmd := &cobra.Command{
		Use:     "launch [model]",
		Short:   "Start llama-server and keep it running until interrupted",
		Example: "  ggufctl launch gemma\n  ggufctl launch smolvlm --port 8081 --open",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer s.app.Shutdown()
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			h, err := s.launch(ctx, firstArg(args), lf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "llama-server ready at %s (pid %d, model %s)\n", h.URL(), h.PID(), h.Model().ID)
			return waitServer(ctx, h)
		},
	}
	lf.register(cmd)
	return cmd
}

func promptCmd(s *session) *cobra.Command {
	var pf promptFlags
	var url string
	cmd := &cobra.Command{
		Use:     "prompt <text>",
		Short:   "Send a prompt to a running llama-server",
		Example: "  ggufctl prompt \"Describe this\" --image cat.png\n  ggufctl prompt \"ok?\" --protocol native --grammar yesno",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = "http://" + net.JoinHostPort(connectHost(s.cfg.Host), strconv.Itoa(s.cfg.Port))
			}
			s.app.Attach(url)
			return s.prompt(cmd, pf.request(strings.Join(args, " ")))
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&url, "url", "", "llama-server base URL (defaults to host and port)")
	return cmd
}

func runCmd(s *session) *cobra.Command {
	var lf launchFlags
	var pf promptFlags
	cmd := &cobra.Command{
		Use:     "run <model> <text>",
		Short:   "Start llama-server, send one prompt, then stop it",
		Example: "  ggufctl run gemma \"Write a haiku about autumn\"",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer s.app.Shutdown()
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			if _, err := s.launch(ctx, args[0], lf); err != nil {
				return err
			}
			cmd.SetContext(ctx)
			if err := s.prompt(cmd, pf.request(strings.Join(args[1:], " "))); err != nil {
				return err
			}
			return s.app.Shutdown()
		},
	}
	lf.register(cmd)
	pf.register(cmd)
	return cmd
}

func serveCmd(s *session) *cobra.Command {
	var lf launchFlags
	var addr string
	cmd := &cobra.Command{
		Use:     "serve [model]",
		Short:   "Start llama-server and expose the control API",
		Example: "  ggufctl serve gemma --addr 127.0.0.1:8089",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer s.app.Shutdown()
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			h, err := s.launch(ctx, firstArg(args), lf)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = s.cfg.Addr
			}
			return serveAPI(ctx, s, h, addr)
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Control API listen address (defaults to addr)")
	return cmd
}

func serveAPI(ctx context.Context, s *session, h *manager.Handle, addr string) error {
	log := s.app.Logger()
	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(s.cfg.LogLevel)
	httpapi.SetCORSOptions(len(s.cfg.CORSOrigins) > 0, s.cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		[]string{"Content-Type", "Authorization", "X-Log-Level"})
	httpapi.SetPromptTimeout(s.cfg.PromptTimeout())
	httpapi.SetMaxBodyBytes(int64(s.cfg.MaxBodyBytes))
	httpapi.SetBaseContext(ctx)

	stopped := make(chan struct{})
	var once sync.Once
	s.app.OnShutdown(func() { once.Do(func() { close(stopped) }) })

	srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(s.app), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("event", "api_listen").Str("addr", addr).Str("llama_url", h.URL()).Msg("control API listening")
		errCh <- srv.ListenAndServe()
	}()

	var werr error
	select {
	case <-ctx.Done():
	case <-stopped:
	case <-h.Done():
		werr = exitError(h)
	case err := <-errCh:
		return fmt.Errorf("control API: %w", err)
	}

	// Graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control API: %w", err)
	}
	return werr
}

// waitServer blocks until ctx is cancelled or the process exits on its own.
// Only the latter is an error.
func waitServer(ctx context.Context, h *manager.Handle) error {
	select {
	case <-ctx.Done():
		return nil
	case <-h.Done():
		return exitError(h)
	}
}

// exitError classifies a closed Done channel: nil when the handle was being
// stopped on request, ErrUnexpectedExit otherwise.
func exitError(h *manager.Handle) error {
	if h.Stopping() {
		return nil
	}
	if err := h.ExitErr(); err != nil {
		return fmt.Errorf("%w: %v", manager.ErrUnexpectedExit, err)
	}
	return manager.ErrUnexpectedExit
}

// connectHost maps a wildcard listen host to loopback.
func connectHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return "127.0.0.1"
	}
	return host
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
