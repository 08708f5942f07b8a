// Command khoctl is the operator's terminal client for the warehouse
// backend. It logs in, lists the pending approval queue and approves
// documents, one at a time.
//
// Usage:
//
//	khoctl login -u <username> [-p <password>]
//	khoctl logout
//	khoctl whoami [-json]
//	khoctl passwd [-old <password>] [-new <password>]
//	khoctl pending [-q <query>] [-json]
//	khoctl approve [-key <idempotency key>] <type> <id>
//	khoctl approve-all [-type <type>] [-q <query>]
//	khoctl export [-q <query>] [-o <file.xlsx>]
//	khoctl report [-date YYYY-MM-DD] [-year YYYY] <name>
//	khoctl history [-n <count>] [-json]
//
// Settings come from the environment (and .env when present), the same as
// the console server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

var version = "0.1.0"

const usage = `khoctl - warehouse approvals from the terminal

Commands:
  login        log in and store the session
  logout       forget the stored session
  whoami       show the logged-in operator
  passwd       change the operator password
  pending      list documents waiting for approval
  approve      approve one document (type: import, invoice, return)
  approve-all  approve every pending document in turn
  export       write the pending queue to an XLSX workbook
  report       print a backend report as JSON
  history      show approvals recorded on this machine
  version      print the version
`

func main() {
	_ = godotenv.Load()

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(os.Stderr, ue.Error())
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, "khoctl:", describe(err))
	os.Exit(1)
}

// usageError reports a malformed command line.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// describe turns backend and session failures into operator hints.
func describe(err error) string {
	switch {
	case errors.Is(err, services.ErrNotLoggedIn):
		return "not logged in; run `khoctl login`"
	case errors.Is(err, services.ErrInvalidCredentials):
		return "wrong username or password"
	case errors.Is(err, gateway.ErrAuth):
		return "session was rejected by the server; run `khoctl login` again"
	case errors.Is(err, services.ErrBusy):
		return "another approval is still running; try again"
	case errors.Is(err, gateway.ErrNetwork):
		return fmt.Sprintf("cannot reach the server: %v", err)
	default:
		return err.Error()
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return usagef("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	case "version":
		fmt.Fprintln(stdout, "khoctl", version)
		return nil
	}

	c, ok := commands[cmd]
	if !ok {
		return usagef("unknown command %q", cmd)
	}
	env, err := newEnv(ctx, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer env.close()
	return c(ctx, env, rest)
}
