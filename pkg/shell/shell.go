// Package shell provides the interactive certificate console.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/qoscert/pkg/cert"
	"github.com/r3d91ll/qoscert/pkg/clock"
	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
	"github.com/r3d91ll/qoscert/pkg/export"
	"github.com/r3d91ll/qoscert/pkg/session"
	"github.com/r3d91ll/qoscert/pkg/spinner"
)

const (
	promptIdle     = "\033[32mqoscert>\033[0m "
	promptLoggedIn = "\033[32mqoscert(%s)>\033[0m "
)

// lineReader is the subset of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// PINReader reads a PIN without echoing it.
type PINReader interface {
	ReadPIN(prompt string) (string, error)
}

// Config holds shell configuration.
type Config struct {
	HistoryFile string

	// OutputDir receives finished documents when /finish has no path.
	OutputDir string

	Clock clock.Clock
}

// Shell is the interactive command-line interface.
type Shell struct {
	manager   *session.Manager
	rl        lineReader
	out       io.Writer
	pins      PINReader
	prompter  Prompter
	formatter *certerrors.Formatter
	clock     clock.Clock
	outputDir string

	sessionID string
	prompt    string
}

// New creates a shell reading from the terminal.
func New(manager *session.Manager, cfg Config) (*Shell, error) {
	s := newShell(manager, os.Stdout, nil, nil, cfg)
	completer := NewCompleter(s.pendingTIPs)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptIdle,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, err
	}

	s.rl = rl
	s.pins = readlinePIN{rl}
	s.prompter = &readlinePrompter{rl: rl, prompt: func() string { return s.prompt }}
	s.formatter = certerrors.DefaultFormatter()
	s.formatter.Writer = os.Stdout
	return s, nil
}

func newShell(manager *session.Manager, out io.Writer, pins PINReader, prompter Prompter, cfg Config) *Shell {
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Shell{
		manager:   manager,
		out:       out,
		pins:      pins,
		prompter:  prompter,
		formatter: &certerrors.Formatter{Writer: out, Indent: "  "},
		clock:     cfg.Clock,
		outputDir: cfg.OutputDir,
		prompt:    promptIdle,
	}
}

// Run starts the interactive loop. Any open session is closed on exit.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()
	defer s.logout()

	fmt.Fprintln(s.out, "Log in with /login <mobile>. Type /help for commands.")
	fmt.Fprintln(s.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			fmt.Fprintln(s.out, "Commands start with '/'. Type /help.")
			continue
		}

		if err := s.handleCommand(ctx, line); err != nil {
			if err == errQuit {
				return nil
			}
			s.formatter.Display(err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func errNotLoggedIn() error {
	return certerrors.New(certerrors.ErrSessionNotFound, certerrors.CategorySession, "not logged in").
		WithSuggestion("Log in with /login <mobile>")
}

func (s *Shell) handleCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/help", "/h":
		s.printHelp()

	case "/login":
		return s.handleLogin(parts[1:])

	case "/logout":
		if s.sessionID == "" {
			return errNotLoggedIn()
		}
		s.logout()
		fmt.Fprintln(s.out, "Logged out.")

	case "/tips":
		return s.printTIPs()

	case "/add":
		return s.handleAdd(parts[1:])

	case "/list":
		return s.printCertificates()

	case "/session":
		return s.printSession()

	case "/finish":
		return s.handleFinish(ctx, parts[1:])

	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", cmd)
	}
	return nil
}

func (s *Shell) current() (*session.Session, error) {
	if s.sessionID == "" {
		return nil, errNotLoggedIn()
	}
	sess, err := s.manager.Get(s.sessionID)
	if err != nil {
		s.clearSession()
	}
	return sess, err
}

func (s *Shell) pendingTIPs() []string {
	if s.sessionID == "" {
		return nil
	}
	sess, err := s.manager.Get(s.sessionID)
	if err != nil {
		return nil
	}
	return sess.PendingTIPs()
}

func (s *Shell) setPrompt(p string) {
	s.prompt = p
	if s.rl != nil {
		s.rl.SetPrompt(p)
	}
}

func (s *Shell) clearSession() {
	s.sessionID = ""
	s.setPrompt(promptIdle)
}

func (s *Shell) logout() {
	if s.sessionID != "" {
		_ = s.manager.Logout(s.sessionID)
		s.clearSession()
	}
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (s *Shell) handleLogin(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: /login <mobile>")
		return nil
	}
	if s.sessionID != "" {
		return certerrors.New(certerrors.ErrAuthInvalidCredentials, certerrors.CategoryAuth, "already logged in").
			WithSuggestion("Run /logout first")
	}

	pin, err := s.pins.ReadPIN("PIN: ")
	if err != nil {
		return err
	}
	sess, err := s.manager.Login(args[0], strings.TrimSpace(pin))
	if err != nil {
		return err
	}

	s.sessionID = sess.ID
	s.setPrompt(fmt.Sprintf(promptLoggedIn, sess.User.Mobile))
	fmt.Fprintf(s.out, "Welcome, %s.\n", sess.User.Name)
	return s.printTIPs()
}

func (s *Shell) handleAdd(args []string) error {
	sess, err := s.current()
	if err != nil {
		return err
	}
	d, err := parseAdd(args, sess.PendingTIPs())
	if err != nil {
		return err
	}
	rec, err := s.manager.AddCertificate(s.sessionID, d)
	if err != nil {
		return err
	}

	penalty := "no penalty"
	if rec.PenaltyApplicable {
		penalty = "penalty Rs. " + rec.PenaltyAmount.String()
	}
	fmt.Fprintf(s.out, "Added %s (%s to %s, %s).\n", rec.TIPName,
		rec.FromDate.Format(cert.DisplayLayout), rec.ToDate.Format(cert.DisplayLayout), penalty)

	if pending := sess.PendingTIPs(); len(pending) > 0 {
		fmt.Fprintf(s.out, "%d TIP(s) pending.\n", len(pending))
	} else {
		fmt.Fprintln(s.out, "All TIPs certified. Run /finish to write the PDF.")
	}
	return nil
}

func (s *Shell) handleFinish(ctx context.Context, args []string) error {
	sess, err := s.current()
	if err != nil {
		return err
	}

	path := filepath.Join(s.outputDir, export.DownloadFilename(s.clock.Now()))
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		ok, err := s.prompter.Confirm(fmt.Sprintf("%s exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Cancelled.")
			return nil
		}
	}

	spin := spinner.NewWithConfig(spinner.Config{
		Message: fmt.Sprintf("Rendering %d certificate(s)", len(sess.Certificates())),
		Writer:  s.out,
	})
	spin.Start()
	res, err := s.manager.Finish(ctx, s.sessionID)
	if err != nil {
		spin.Fail("Rendering failed")
		return err
	}
	s.clearSession()

	if err := os.WriteFile(path, res.PDF, 0644); err != nil {
		spin.Fail("Could not write " + path)
		return certerrors.IOWrap(err, certerrors.ErrIOWriteFailed, "write document").WithContext("path", path)
	}
	spin.Success(fmt.Sprintf("Wrote %s (%d page(s), %s)", path, res.Pages, res.Fingerprint[:12]))
	return nil
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

func (s *Shell) printTIPs() error {
	sess, err := s.current()
	if err != nil {
		return err
	}
	pending := sess.PendingTIPs()
	if len(pending) == 0 {
		fmt.Fprintln(s.out, "No TIPs pending.")
		return nil
	}
	fmt.Fprintln(s.out, "Pending TIPs:")
	for i, tip := range pending {
		fmt.Fprintf(s.out, "  #%d  %s\n", i+1, tip)
	}
	return nil
}

func (s *Shell) printCertificates() error {
	sess, err := s.current()
	if err != nil {
		return err
	}
	recs := sess.Certificates()
	if len(recs) == 0 {
		fmt.Fprintln(s.out, "No certificates yet.")
		return nil
	}
	for i, r := range recs {
		penalty := "-"
		if r.PenaltyApplicable {
			penalty = "Rs. " + r.PenaltyAmount.String()
		}
		fmt.Fprintf(s.out, "  %d. %-24s %s .. %s  %s\n", i+1, r.TIPName,
			r.FromDate.Format(cert.DisplayLayout), r.ToDate.Format(cert.DisplayLayout), penalty)
	}
	return nil
}

func (s *Shell) printSession() error {
	sess, err := s.current()
	if err != nil {
		return err
	}
	sum := sess.Summary()
	fmt.Fprintf(s.out, "Session:      %s\n", sum.ID)
	fmt.Fprintf(s.out, "Officer:      %s (%s)\n", sum.Name, sum.Mobile)
	fmt.Fprintf(s.out, "Manager:      %s\n", sum.MTName)
	fmt.Fprintf(s.out, "Certificates: %d\n", len(sum.Certificates))
	fmt.Fprintf(s.out, "Pending:      %d\n", len(sum.Pending))
	fmt.Fprintf(s.out, "Opened:       %s\n", sum.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  /login <mobile>                       Log in (prompts for PIN)
  /tips                                 List pending TIPs
  /add <tip|#n> <from> <to> [penalty]   Certify a TIP; dates are YYYY-MM-DD or DD-MM-YYYY,
                                        penalty is an amount or '-' for none
  /list                                 List certificates added so far
  /session                              Show session details
  /finish [path]                        Render all certificates to a PDF
  /logout                               Discard the session
  /help                                 Show this help
  /quit                                 Exit`)
}

// -----------------------------------------------------------------------------
// Argument parsing
// -----------------------------------------------------------------------------

var noPenalty = map[string]bool{"-": true, "no": true, "nil": true, "none": true}

// parseAdd reads "<tip...> <from> <to> [penalty]" from the end so TIP
// names may contain spaces. "#n" selects the n-th pending TIP.
func parseAdd(args []string, pending []string) (session.Draft, error) {
	usage := certerrors.Validation(certerrors.ErrRecordInvalid, "usage: /add <tip|#n> <from> <to> [penalty]")
	if len(args) < 3 {
		return session.Draft{}, usage
	}

	var d session.Draft
	rest := args
	last := rest[len(rest)-1]
	if _, err := cert.ParseDate(last); err != nil {
		rest = rest[:len(rest)-1]
		if !noPenalty[strings.ToLower(last)] {
			amount, err := cert.ParseAmount(last)
			if err != nil {
				return session.Draft{}, err
			}
			d.PenaltyApplicable = true
			d.PenaltyAmount = amount
		}
	}
	if len(rest) < 3 {
		return session.Draft{}, usage
	}

	from, err := cert.ParseDate(rest[len(rest)-2])
	if err != nil {
		return session.Draft{}, err
	}
	to, err := cert.ParseDate(rest[len(rest)-1])
	if err != nil {
		return session.Draft{}, err
	}
	d.FromDate, d.ToDate = from, to

	tip := strings.Join(rest[:len(rest)-2], " ")
	if strings.HasPrefix(tip, "#") {
		n, err := strconv.Atoi(tip[1:])
		if err != nil || n < 1 || n > len(pending) {
			return session.Draft{}, certerrors.Sessionf(certerrors.ErrSessionTIPNotPending, "no pending TIP %s", tip)
		}
		tip = pending[n-1]
	}
	d.TIPName = tip
	return d, nil
}

// -----------------------------------------------------------------------------
// readline adapters
// -----------------------------------------------------------------------------

type readlinePIN struct {
	rl *readline.Instance
}

func (r readlinePIN) ReadPIN(prompt string) (string, error) {
	b, err := r.rl.ReadPassword(prompt)
	return string(b), err
}
