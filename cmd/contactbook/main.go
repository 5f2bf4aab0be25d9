package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smileynet/contactbook/internal/config"
	"github.com/smileynet/contactbook/internal/contact"
	"github.com/smileynet/contactbook/internal/dashboard"
	"github.com/smileynet/contactbook/internal/logging"
	"github.com/smileynet/contactbook/internal/server"
	"github.com/smileynet/contactbook/internal/service"
	"github.com/smileynet/contactbook/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errDeclined reports a delete the user did not confirm.
var errDeclined = errors.New("delete: not confirmed")

// shutdownTimeout bounds graceful server shutdown.
const shutdownTimeout = 5 * time.Second

// Globals are flags shared by every command.
type Globals struct {
	Server  string `help:"Contact server base URL (overrides config)." placeholder:"URL"`
	Config  string `help:"Extra config file applied after user and project config." type:"path" placeholder:"PATH"`
	Verbose bool   `help:"Enable debug logging." short:"v"`
}

// CLI is the top-level command structure for contactbook.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Serve   ServeCmd         `cmd:"" help:"Run the contact store server."`
	UI      UICmd            `cmd:"" name:"ui" help:"Open the interactive contact manager."`
	List    ListCmd          `cmd:"" help:"List all contacts."`
	Get     GetCmd           `cmd:"" help:"Show one contact."`
	Add     AddCmd           `cmd:"" help:"Create a contact."`
	Edit    EditCmd          `cmd:"" help:"Change fields of an existing contact."`
	Delete  DeleteCmd        `cmd:"" help:"Delete a contact."`
}

// contactAPI abstracts service.Client for testing the one-shot commands.
type contactAPI interface {
	GetAll(ctx context.Context) ([]contact.Contact, error)
	GetByID(ctx context.Context, id int64) (contact.Contact, error)
	Create(ctx context.Context, f contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, c contact.Contact) (contact.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// loadConfig loads layered config from user, project, and --config paths,
// then applies env and flag overrides.
func loadConfig(g *Globals) (*config.Config, error) {
	paths := []string{
		os.ExpandEnv("$HOME/.config/contactbook/config.yaml"),
		".contactbook/config.yaml",
	}
	if g.Config != "" {
		paths = append(paths, g.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.Server != "" {
		cfg.Client.BaseURL = g.Server
	}
	return cfg, nil
}

// setup loads and validates config and builds a stderr logger.
func setup(g *Globals, apply func(*config.Config)) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log, logging.Stderr, g.Verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newClient builds the HTTP contact service from config.
func newClient(cfg *config.Config, logger *zap.Logger) (*service.Client, error) {
	return service.New(cfg.Client.BaseURL,
		service.WithTimeout(cfg.Client.Timeout),
		service.WithLogger(logger),
	)
}

// runAPI is the shared wiring for list, get, add, edit, and delete.
func runAPI(g *Globals, name string, fn func(ctx context.Context, api contactAPI) error) error {
	cfg, logger, err := setup(g, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, client)
}

// --- Serve command ---

// ServeCmd runs the REST store server.
type ServeCmd struct {
	Addr    string `help:"Listen address (overrides config)."`
	Backend string `help:"Storage backend: memory, file, or sqlite (overrides config)."`
	Path    string `help:"Storage path for file and sqlite backends (overrides config)." type:"path"`
}

// Run executes the serve command.
func (s *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := setup(g, func(c *config.Config) {
		if s.Addr != "" {
			c.Server.Addr = s.Addr
		}
		if s.Backend != "" {
			c.Server.Backend = s.Backend
		}
		if s.Path != "" {
			c.Server.Path = s.Path
		}
	})
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.Server.Backend, cfg.Server.Path)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("serve: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving contacts",
		zap.String("addr", ln.Addr().String()),
		zap.String("backend", cfg.Server.Backend))
	return s.run(ctx, ln, st, logger)
}

// run serves until ctx is cancelled, then shuts down gracefully and closes
// the store.
func (s *ServeCmd) run(ctx context.Context, ln net.Listener, st store.Store, logger *zap.Logger) error {
	hs := &http.Server{
		Handler:           server.New(st, server.WithLogger(logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("serve: shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if cerr := st.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("serve: closing store: %w", cerr)
	}
	return err
}

// --- UI command ---

// UICmd opens the interactive contact manager.
type UICmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run executes the ui command.
func (u *UICmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("ui: requires a terminal (TTY)")
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	// The terminal belongs to Bubble Tea, so logs go to a file.
	logger, err := logging.New(cfg.Log, logging.File, g.Verbose)
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := dashboard.NewModel(client,
		dashboard.WithLogger(logger),
		dashboard.WithContext(ctx),
	)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	return u.run(true, prog)
}

// run executes the tea program, enabling testable wiring.
func (u *UICmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("ui: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	return err
}

// --- One-shot commands ---

// ListCmd prints every contact.
type ListCmd struct {
	JSON bool `help:"Print JSON instead of a table."`
}

// Run executes the list command.
func (l *ListCmd) Run(g *Globals) error {
	return runAPI(g, "list", func(ctx context.Context, api contactAPI) error {
		return l.run(ctx, os.Stdout, api)
	})
}

func (l *ListCmd) run(ctx context.Context, w io.Writer, api contactAPI) error {
	contacts, err := api.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if l.JSON {
		return writeJSON(w, contacts)
	}
	if len(contacts) == 0 {
		_, _ = fmt.Fprintln(w, "No contacts.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "PHONE")
	for _, c := range contacts {
		t.Row(c.IDString(), c.Name, c.Email, c.Phone)
	}
	_, _ = fmt.Fprintln(w, t.String())
	return nil
}

// GetCmd prints one contact.
type GetCmd struct {
	ID   int64 `arg:"" help:"Contact ID."`
	JSON bool  `help:"Print JSON instead of text."`
}

// Run executes the get command.
func (c *GetCmd) Run(g *Globals) error {
	return runAPI(g, "get", func(ctx context.Context, api contactAPI) error {
		return c.run(ctx, os.Stdout, api)
	})
}

func (c *GetCmd) run(ctx context.Context, w io.Writer, api contactAPI) error {
	ct, err := api.GetByID(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if c.JSON {
		return writeJSON(w, ct)
	}
	printContact(w, ct)
	return nil
}

// AddCmd creates a contact.
type AddCmd struct {
	Name  string `help:"Full name." required:""`
	Email string `help:"Email address." required:""`
	Phone string `help:"Phone number." required:""`
}

// Run executes the add command.
func (a *AddCmd) Run(g *Globals) error {
	return runAPI(g, "add", func(ctx context.Context, api contactAPI) error {
		return a.run(ctx, os.Stdout, api)
	})
}

func (a *AddCmd) run(ctx context.Context, w io.Writer, api contactAPI) error {
	f := contact.Fields{Name: a.Name, Email: a.Email, Phone: a.Phone}
	if err := contact.Validate(f).Err(); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	created, err := api.Create(ctx, f)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Created contact %s\n", created.IDString())
	return nil
}

// EditCmd changes fields of an existing contact. Omitted flags keep their
// stored value.
type EditCmd struct {
	ID    int64  `arg:"" help:"Contact ID."`
	Name  string `help:"New full name."`
	Email string `help:"New email address."`
	Phone string `help:"New phone number."`
}

// Run executes the edit command.
func (e *EditCmd) Run(g *Globals) error {
	return runAPI(g, "edit", func(ctx context.Context, api contactAPI) error {
		return e.run(ctx, os.Stdout, api)
	})
}

func (e *EditCmd) run(ctx context.Context, w io.Writer, api contactAPI) error {
	if e.Name == "" && e.Email == "" && e.Phone == "" {
		return fmt.Errorf("edit: %w: nothing to change; pass --name, --email, or --phone", contact.ErrValidation)
	}
	ct, err := api.GetByID(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	if e.Name != "" {
		ct.Name = e.Name
	}
	if e.Email != "" {
		ct.Email = e.Email
	}
	if e.Phone != "" {
		ct.Phone = e.Phone
	}
	if err := contact.Validate(ct.Fields()).Err(); err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	// The store may omit the id in its response; the path id is authoritative.
	ct.ID = contact.NewID(e.ID)
	updated, err := api.Update(ctx, ct)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Updated contact %s\n", updated.IDString())
	return nil
}

// DeleteCmd removes a contact after confirmation.
type DeleteCmd struct {
	ID  int64 `arg:"" help:"Contact ID."`
	Yes bool  `help:"Skip the confirmation prompt." short:"y"`
}

// Run executes the delete command.
func (d *DeleteCmd) Run(g *Globals) error {
	return runAPI(g, "delete", func(ctx context.Context, api contactAPI) error {
		return d.run(ctx, os.Stdin, os.Stdout, api)
	})
}

func (d *DeleteCmd) run(ctx context.Context, in io.Reader, w io.Writer, api contactAPI) error {
	if !d.Yes {
		ct, err := api.GetByID(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		_, _ = fmt.Fprintf(w, "Delete contact %d (%s)? [y/N] ", d.ID, ct.Name)
		if !confirmed(in) {
			_, _ = fmt.Fprintln(w, "Cancelled.")
			return errDeclined
		}
	}
	if err := api.Delete(ctx, d.ID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Deleted contact %d\n", d.ID)
	return nil
}

// confirmed reads one line and reports whether it is a yes.
func confirmed(in io.Reader) bool {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printContact(w io.Writer, c contact.Contact) {
	_, _ = fmt.Fprintf(w, "ID:    %s\n", c.IDString())
	_, _ = fmt.Fprintf(w, "Name:  %s\n", c.Name)
	_, _ = fmt.Fprintf(w, "Email: %s\n", c.Email)
	_, _ = fmt.Fprintf(w, "Phone: %s\n", c.Phone)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const (
	exitSuccess = 0
	exitFailed  = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, contact.ErrNotFound) || errors.Is(err, contact.ErrValidation) || errors.Is(err, errDeclined) {
		return exitFailed
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("contactbook"),
		kong.Description("Manage an address book stored behind a REST service."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
