package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

const prompt = "> "

// Controller is a line-oriented front end for the session: each input line
// is one menu action, each result one Success or Error line.
type Controller struct {
	session  ports.SessionService
	launcher ports.BrowserLauncher
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
}

// NewController creates a controller reading commands from in. launcher may be nil.
func NewController(session ports.SessionService, launcher ports.BrowserLauncher, in io.Reader, out io.Writer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		session:  session,
		launcher: launcher,
		in:       in,
		out:      out,
		logger:   logger.With("component", "console"),
	}
}

// Run processes commands until quit, end of input or ctx cancellation
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printf("%s\n", c.banner())
	for {
		c.printf("%s", prompt)

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading commands: %w", err)
					}
				default:
				}
				return nil
			}
			if quit := c.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs one command line and reports whether the controller should exit
func (c *Controller) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	c.logger.Debug("Console command", slog.String("command", cmd))

	switch cmd {
	case "start":
		if len(args) == 0 {
			c.usage("start <dir>")
			return false
		}
		c.report(c.session.Start(ctx, strings.Join(args, " ")))

	case "recent":
		c.listRecent()

	case "open":
		if len(args) != 1 {
			c.usage("open <n>")
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			c.usage("open <n>")
			return false
		}
		c.report(c.session.StartRecent(ctx, n-1))

	case "stop":
		if err := c.session.Stop(); err != nil {
			c.fail(err)
			return false
		}
		c.succeed("Server stopped")

	case "url":
		c.report(c.session.URL())

	case "browse":
		c.browse()

	case "status":
		c.status()

	case "help", "?":
		c.help()

	case "quit", "exit":
		return true

	default:
		c.printf("Unknown command %q (try help)\n", cmd)
	}

	return false
}

func (c *Controller) listRecent() {
	recent := c.session.Recent()
	if len(recent) == 0 {
		c.printf("No recent directories\n")
		return
	}
	for i, dir := range recent {
		c.printf("%d. %s\n", i+1, dir)
	}
}

func (c *Controller) browse() {
	url, err := c.session.URL()
	if err != nil {
		c.fail(err)
		return
	}
	if c.launcher == nil {
		c.printf("%s\n", url)
		return
	}
	if err := c.launcher.Open(url); err != nil {
		c.logger.Warn("Failed to open browser", slog.String("error", err.Error()))
		c.printf("Error: %s\n", err.Error())
		return
	}
	c.succeed("Opened " + url)
}

func (c *Controller) status() {
	info := c.session.Info()
	if info.State != entities.SessionRunning {
		c.printf("Status: %s\n", info.State)
		return
	}
	c.printf("Status: %s\nRoot: %s\nURL: %s\nClients: %d\n", info.State, info.Root, info.URL, info.Clients)
}

func (c *Controller) help() {
	c.printf(`Commands:
  start <dir>  serve a directory
  recent       list recent directories
  open <n>     serve the n-th recent directory
  stop         stop the server
  url          print the server URL
  browse       open the server URL in a browser
  status       show the session state
  quit         stop and exit
`)
}

func (c *Controller) banner() string {
	return fmt.Sprintf("%s console. Type help for commands.", entities.AppName)
}

// report prints msg on success or the error kind on failure
func (c *Controller) report(msg string, err error) {
	if err != nil {
		c.fail(err)
		return
	}
	c.succeed(msg)
}

func (c *Controller) succeed(msg string) {
	c.printf("Success: %s\n", msg)
}

func (c *Controller) fail(err error) {
	c.logger.Debug("Command failed", slog.String("error", err.Error()))
	c.printf("Error: %s\n", entities.ErrorKind(err))
}

func (c *Controller) usage(u string) {
	c.printf("Usage: %s\n", u)
}

func (c *Controller) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
