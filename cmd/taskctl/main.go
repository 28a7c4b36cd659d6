// Command taskctl is a terminal client for the task tracker API.
//
//	taskctl login --email admin@dquant.com --password admin123
//	taskctl tasks --status TODO
//	taskctl status 3 IN_PROGRESS
//
// The session is kept encrypted on disk between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"taskflow/internal/client"
	"taskflow/pkg/session"
)

const usage = `usage: taskctl [--api URL] [--session PATH] <command> [flags] [args]

commands:
  login      --email E --password P
  logout
  whoami
  health
  tasks      [--status S] [--priority P] [--search Q]
  show       <task-id>
  create     --title T [--description D] [--priority P] [--assign USER-ID]
  update     <task-id> [--title T] [--description D] [--status S] [--priority P] [--assign USER-ID | --unassign]
  status     <task-id> <TODO|IN_PROGRESS|COMPLETED>
  priority   <task-id> <LOW|MEDIUM|HIGH|URGENT>
  delete     <task-id>
  comments   <task-id>
  comment    <task-id> <text>
  users
  register   --name N --email E --password P [--role ADMIN|EMPLOYEE]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "taskctl:", err)
		os.Exit(1)
	}
}

// run parses global flags, restores the saved session and dispatches to the
// named command.
func run(ctx context.Context, args []string, out io.Writer) error {
	global := pflag.NewFlagSet("taskctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(out)
	global.Usage = func() { fmt.Fprint(out, usage) }

	defaultSession, err := session.DefaultPath()
	if err != nil {
		defaultSession = ".taskctl-session"
	}
	apiURL := global.String("api", envOr("TASKFLOW_API", client.DefaultBaseURL), "API base URL")
	sessionPath := global.String("session", envOr("TASKFLOW_SESSION", defaultSession), "session file")
	passphrase := global.String("passphrase", os.Getenv("TASKFLOW_PASSPHRASE"), "session encryption passphrase")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return pflag.ErrHelp
	}

	authStore := client.NewAuthStore(session.New(*sessionPath, sessionPassphrase(*passphrase)))
	if err := authStore.Load(); err != nil {
		// An unreadable session only means signing in again.
		fmt.Fprintln(out, "warning: ignoring saved session:", err)
		_ = authStore.Clear()
	}

	api := client.New(*apiURL, authStore)
	c := &cli{
		api:   api,
		tasks: client.NewTaskStore(api),
		out:   out,
		name:  global.Arg(0),
		flags: pflag.NewFlagSet(global.Arg(0), pflag.ContinueOnError),
	}
	c.flags.SetOutput(out)

	cmd, ok := commands[c.name]
	if !ok {
		global.Usage()
		return fmt.Errorf("unknown command %q", c.name)
	}
	return cmd(ctx, c, global.Args()[1:])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sessionPassphrase binds the session file to this machine and user when no
// passphrase is configured.
func sessionPassphrase(configured string) string {
	if configured != "" {
		return configured
	}
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return "taskctl:" + host + ":" + home
}
