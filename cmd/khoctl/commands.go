package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-warehouse-approvals/internal/app"
	"github.com/tbourn/go-warehouse-approvals/internal/config"
	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/export"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/observability"
	"github.com/tbourn/go-warehouse-approvals/internal/search"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
	"github.com/tbourn/go-warehouse-approvals/internal/sysutil"
)

const timeLayout = "02/01/2006 15:04"

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"login":       cmdLogin,
	"logout":      cmdLogout,
	"whoami":      cmdWhoami,
	"passwd":      cmdPasswd,
	"pending":     cmdPending,
	"approve":     cmdApprove,
	"approve-all": cmdApproveAll,
	"export":      cmdExport,
	"report":      cmdReport,
	"history":     cmdHistory,
}

// env is what every command runs against.
type env struct {
	app  *app.App
	in   *bufio.Reader
	out  io.Writer
	errw io.Writer
	p    *message.Printer

	shutdownOTel func(context.Context) error
}

func newEnv(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// The CLI stays quiet unless asked; LOG_LEVEL belongs to the server.
	logger := sysutil.ConfigureLogger(stderr, sysutil.FirstNonEmpty(os.Getenv("KHOCTL_LOG_LEVEL"), "warn"), true)

	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, observability.Process{
		Version:    version,
		Role:       "cli",
		BackendURL: cfg.Backend.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.OnLogout(func() {
		fmt.Fprintln(stderr, "khoctl: the server ended the session; log in again")
	})

	lang := language.Make(sysutil.FirstNonEmpty(os.Getenv("KHOCTL_LANG"), "vi"))
	return &env{
		app:          a,
		in:           bufio.NewReader(stdin),
		out:          stdout,
		errw:         stderr,
		p:            message.NewPrinter(lang),
		shutdownOTel: shutdown,
	}, nil
}

func (e *env) close() {
	_ = e.app.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.shutdownOTel(ctx)
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.errw)
	return fs
}

// prompt reads one line from stdin.
func (e *env) prompt(label string) (string, error) {
	fmt.Fprint(e.errw, label)
	line, err := e.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// requireSession fails fast instead of sending an anonymous request.
func (e *env) requireSession() error {
	if !e.app.Authenticated() {
		return services.ErrNotLoggedIn
	}
	return nil
}

// loadPending loads the queue and reports a session the server rejected
// while loading.
func (e *env) loadPending(ctx context.Context) (services.Queue, error) {
	q := e.app.Documents.LoadPending(ctx)
	if !e.app.Authenticated() {
		return q, gateway.ErrAuth
	}
	for _, t := range q.Failed {
		fmt.Fprintf(e.errw, "warning: could not load %s documents\n", t)
	}
	return q, nil
}

func (e *env) money(d decimal.Decimal) string {
	return e.p.Sprintf("%d", d.Round(0).IntPart())
}

func (e *env) writeJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

func displayName(u domain.User) string {
	return sysutil.FirstNonEmpty(u.FullName, u.Username, u.IDString())
}

// ---- session ----

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := e.flags("login")
	user := fs.String("u", os.Getenv("KHO_USERNAME"), "username")
	pass := fs.String("p", "", "password; KHO_PASSWORD or a prompt when empty")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	username := strings.TrimSpace(*user)
	if username == "" {
		if username, err = e.prompt("Username: "); err != nil {
			return err
		}
	}
	password := sysutil.FirstNonEmpty(*pass, os.Getenv("KHO_PASSWORD"))
	if password == "" {
		if password, err = e.prompt("Password: "); err != nil {
			return err
		}
	}

	u, err := e.app.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Logged in as %s", displayName(u))
	if u.Role != "" {
		fmt.Fprintf(e.out, " (%s)", u.Role)
	}
	fmt.Fprintln(e.out)
	return nil
}

func cmdLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, e *env, args []string) error {
	fs := e.flags("whoami")
	asJSON := fs.Bool("json", false, "print JSON")
	refresh := fs.Bool("refresh", false, "fetch the profile from the server")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *refresh {
		if _, err := e.app.Auth.RefreshProfile(ctx); err != nil {
			return err
		}
	}

	st, err := e.app.Auth.Status(ctx)
	if err != nil {
		return err
	}
	if !st.LoggedIn {
		return services.ErrNotLoggedIn
	}
	if *asJSON {
		return e.writeJSON(st)
	}

	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	if st.User != nil {
		fmt.Fprintf(tw, "User:\t%s\n", displayName(*st.User))
		if st.User.Username != "" {
			fmt.Fprintf(tw, "Username:\t%s\n", st.User.Username)
		}
		if st.User.Email != "" {
			fmt.Fprintf(tw, "Email:\t%s\n", st.User.Email)
		}
	}
	if st.Role != "" {
		fmt.Fprintf(tw, "Role:\t%s\n", st.Role)
	}
	if st.ExpiresAt != nil {
		state := "valid"
		if st.Expired {
			state = "expired"
		}
		fmt.Fprintf(tw, "Token:\t%s until %s\n", state, st.ExpiresAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

func cmdPasswd(ctx context.Context, e *env, args []string) error {
	fs := e.flags("passwd")
	oldPw := fs.String("old", "", "current password")
	newPw := fs.String("new", "", "new password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}

	var err error
	if *oldPw == "" {
		if *oldPw, err = e.prompt("Current password: "); err != nil {
			return err
		}
	}
	if *newPw == "" {
		if *newPw, err = e.prompt("New password: "); err != nil {
			return err
		}
	}
	if err := e.app.Auth.ChangePassword(ctx, *oldPw, *newPw); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Password changed")
	return nil
}

// ---- documents ----

func cmdPending(ctx context.Context, e *env, args []string) error {
	fs := e.flags("pending")
	query := fs.String("q", "", "accent-insensitive search")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}

	q, err := e.loadPending(ctx)
	if err != nil {
		return err
	}
	docs := search.Filter(q.Documents, *query)

	if *asJSON {
		return e.writeJSON(struct {
			Documents []domain.Document     `json:"documents"`
			Failed    []domain.DocumentType `json:"failed,omitempty"`
			LoadedAt  time.Time             `json:"loaded_at"`
		}{docs, q.Failed, q.LoadedAt})
	}

	if len(docs) == 0 {
		fmt.Fprintln(e.out, "Nothing waiting for approval")
		return nil
	}
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tCODE\tPARTNER\tCREATED\tTOTAL")
	for _, d := range docs {
		created := "-"
		if !d.CreatedAt.IsZero() {
			created = d.CreatedAt.Local().Format(timeLayout)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			d.Type, d.ID, d.Code, d.Partner.Name, created, e.money(d.TotalAmount))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := make(map[domain.DocumentType]int, 3)
	for _, d := range docs {
		counts[d.Type]++
	}
	e.p.Fprintf(e.out, "\n%d pending: %d import, %d invoice, %d return\n", len(docs),
		counts[domain.DocumentImport], counts[domain.DocumentInvoice], counts[domain.DocumentReturn])
	return nil
}

func parseDocument(args []string) (domain.DocumentType, int64, error) {
	if len(args) != 2 {
		return "", 0, usagef("expected <type> <id>")
	}
	t, err := domain.ParseDocumentType(args[0])
	if err != nil {
		return "", 0, usagef("%v", err)
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, usagef("document id must be a positive integer, got %q", args[1])
	}
	return t, id, nil
}

func cmdApprove(ctx context.Context, e *env, args []string) error {
	fs := e.flags("approve")
	key := fs.String("key", "", "idempotency key; repeating it replays a recorded success")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	t, id, err := parseDocument(fs.Args())
	if err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}

	res, err := e.app.Approvals.Submit(ctx, services.ApprovalRequest{Type: t, ID: id, IdempotencyKey: *key})
	if err != nil {
		return err
	}
	if res.Replayed {
		fmt.Fprintf(e.out, "Already approved %s at %s\n", res.Key, res.ApprovedAt.Local().Format(timeLayout))
		return nil
	}
	fmt.Fprintf(e.out, "Approved %s\n", res.Key)

	q, err := e.loadPending(ctx)
	if err != nil {
		return err
	}
	e.p.Fprintf(e.out, "%d documents still pending\n", len(q.Documents))
	return nil
}

func cmdApproveAll(ctx context.Context, e *env, args []string) error {
	fs := e.flags("approve-all")
	only := fs.String("type", "", "approve only this document type")
	query := fs.String("q", "", "approve only documents matching this search")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	var filter domain.DocumentType
	if *only != "" {
		t, err := domain.ParseDocumentType(*only)
		if err != nil {
			return usagef("%v", err)
		}
		filter = t
	}
	if err := e.requireSession(); err != nil {
		return err
	}

	q, err := e.loadPending(ctx)
	if err != nil {
		return err
	}
	var docs []domain.Document
	for _, d := range search.Filter(q.Documents, *query) {
		if filter == "" || d.Type == filter {
			docs = append(docs, d)
		}
	}
	if len(docs) == 0 {
		fmt.Fprintln(e.out, "Nothing to approve")
		return nil
	}

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetWriter(e.errw),
		progressbar.OptionSetDescription("Approving"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	type failure struct {
		doc domain.Document
		err error
	}
	var failed []failure
	approved := 0
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			_ = bar.Exit()
			return err
		}
		_, err := e.app.Approvals.Submit(ctx, services.ApprovalRequest{Type: d.Type, ID: d.ID})
		switch {
		case err == nil:
			approved++
		case errors.Is(err, gateway.ErrAuth), errors.Is(err, gateway.ErrNetwork):
			// Nothing after this can succeed.
			_ = bar.Exit()
			fmt.Fprintln(e.errw)
			return err
		default:
			failed = append(failed, failure{doc: d, err: err})
		}
		_ = bar.Add(1)
	}
	fmt.Fprintln(e.errw)

	e.p.Fprintf(e.out, "Approved %d of %d documents\n", approved, len(docs))
	for _, f := range failed {
		fmt.Fprintf(e.out, "  %s %s: %v\n", f.doc.Key(), f.doc.Code, f.err)
	}

	if approved > 0 {
		q, err := e.loadPending(ctx)
		if err != nil {
			return err
		}
		e.p.Fprintf(e.out, "%d documents still pending\n", len(q.Documents))
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d approvals failed", len(failed))
	}
	return nil
}

func cmdExport(ctx context.Context, e *env, args []string) (err error) {
	fs := e.flags("export")
	out := fs.String("o", "", "output file (default pending-approvals-<time>.xlsx)")
	query := fs.String("q", "", "export only documents matching this search")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := e.requireSession(); err != nil {
		return err
	}

	q, err := e.loadPending(ctx)
	if err != nil {
		return err
	}
	q.Documents = search.Filter(q.Documents, *query)

	path := *out
	if path == "" {
		path = export.FileName(q.LoadedAt)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := export.WriteQueue(f, q); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	e.p.Fprintf(e.out, "Wrote %d documents to %s\n", len(q.Documents), path)
	return nil
}

// ---- reports and history ----

func cmdReport(ctx context.Context, e *env, args []string) error {
	fs := e.flags("report")
	date := fs.String("date", "", "day for daily-revenue (YYYY-MM-DD)")
	year := fs.Int("year", 0, "year for monthly-revenue")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected a report name: top-selling-products, daily-revenue, net-revenue, monthly-revenue, customer-debt")
	}
	name, err := services.ParseReportName(fs.Arg(0))
	if err != nil {
		return usagef("%v", err)
	}
	if err := e.requireSession(); err != nil {
		return err
	}

	raw, err := e.app.Reports.Fetch(ctx, name, services.ReportParams{Date: *date, Year: *year})
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	return e.writeJSON(v)
}

type historyEntry struct {
	Time     time.Time          `json:"time"`
	Document domain.DocumentKey `json:"document"`
	Outcome  string             `json:"outcome"`
	Error    string             `json:"error,omitempty"`
}

func cmdHistory(ctx context.Context, e *env, args []string) error {
	fs := e.flags("history")
	n := fs.Int("n", 20, "number of entries")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if e.app.Audit == nil {
		return errors.New("approval history needs CREDENTIALS_BACKEND=sqlite")
	}
	sess, err := credentials.Load(ctx, e.app.Store)
	if errors.Is(err, credentials.ErrNoSession) {
		return services.ErrNotLoggedIn
	}
	if err != nil {
		return err
	}

	recs, err := e.app.Audit.Recent(ctx, sess.UserID, *n)
	if err != nil {
		return err
	}
	entries := make([]historyEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, historyEntry{
			Time:     r.CreatedAt,
			Document: r.DocumentKey(),
			Outcome:  r.Outcome,
			Error:    r.ErrorMessage,
		})
	}
	if *asJSON {
		return e.writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(e.out, "No approvals recorded")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDOCUMENT\tOUTCOME\tERROR")
	for _, h := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Time.Local().Format(timeLayout), h.Document, h.Outcome, h.Error)
	}
	return tw.Flush()
}
