package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/loandesk/internal/client/guard"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Navigate(ctx context.Context, location string) error
	Page(ctx context.Context, delta int) error
	Refresh(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the loandesk CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Screen commands become route locations and
// go through Navigate, so the route guard sees every one of them. Unknown
// commands are reported back to the user. The loop exits on EOF, when ctx is
// done, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Always:
//	  - help                        show available commands
//	  - login | logout | whoami
//	  - exit | quit                 leave the program
//
//	Screens:
//	  - home                        start page
//	  - dashboard                   portfolio summary
//	  - contracts [page] [search]   list contracts
//	  - next | prev                 page through the last contracts list
//	  - contract <id>               one contract
//	  - clients | users             user lists
//	  - adduser                     create a user
//	  - go <path>                   open any route, e.g. "go /contracts/42"
//	  - refresh                     reload the current screen
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ld %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: home, dashboard, contracts [page] [search], next, prev, contract <id>, clients, users, adduser, go <path>, refresh, whoami, logout, exit")
			} else {
				printlnFn("Available commands: login, exit (any screen command will ask you to log in)")
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "next", "n":
			cmdErr = a.Page(ctx, 1)

		case "prev", "p":
			cmdErr = a.Page(ctx, -1)

		case "refresh", "r":
			cmdErr = a.Refresh(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			location, usage := commandLocation(cmd, args)
			switch {
			case usage != "":
				printlnFn("Usage:", usage)
			case location == "":
				printlnFn("Unknown command:", cmd)
			default:
				cmdErr = a.Navigate(ctx, location)
			}
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}

// commandLocation maps a screen command to its route location. It returns a
// usage string when the arguments are wrong and "" for unknown commands.
func commandLocation(cmd string, args []string) (location, usage string) {
	switch cmd {
	case "home":
		return guard.PathHome, ""
	case "dashboard":
		return guard.PathDashboard, ""
	case "clients":
		return guard.PathClients, ""
	case "users":
		return guard.PathUsers, ""
	case "adduser":
		return guard.PathUserNew, ""
	case "l", "contracts":
		page := 1
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				page = n
				args = args[1:]
			}
		}
		if page < 1 {
			return "", "contracts [page] [search]"
		}
		return contractsLocation(page, 0, strings.Join(args, " ")), ""
	case "contract", "show":
		if len(args) != 1 {
			return "", "contract <id>"
		}
		return contractLocation(args[0]), ""
	case "go":
		if len(args) != 1 || !strings.HasPrefix(args[0], "/") {
			return "", "go <path>"
		}
		return args[0], ""
	}
	return "", ""
}
