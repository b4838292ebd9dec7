// Command rcon is a CLI client for both the Source RCON and BattlEye RCON
// protocols.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/mpotter/rcon/battleye"
	"github.com/mpotter/rcon/source"
)

const (
	exitConnectFailure        = 1
	exitPasswordPromptFailure = 2
	exitLoginIOFailure        = 3
	exitLoginRejected         = 4
	exitCommandFailure        = 5
)

// CLI is the root command line, parsed by kong.
type CLI struct {
	Server   string        `arg:"" name:"server" help:"Server address, host:port."`
	Password string        `short:"p" help:"RCON password. Prompted for if omitted and stdin is a TTY."`
	Timeout  time.Duration `default:"5s" help:"Connection and command timeout."`

	Source   SourceCmd   `cmd:"" help:"Run a command against a Source RCON server."`
	Battleye BattleyeCmd `cmd:"" help:"Run a command against a BattlEye RCON server."`
	Exec     ExecCmd     `cmd:"" help:"Run a command against a server of the given --protocol."`
}

// SourceCmd runs a command over Source RCON.
type SourceCmd struct {
	Quirk   string   `help:"Enable a protocol quirk (palworld)."`
	Command []string `arg:"" help:"The command to execute."`
}

// BattleyeCmd runs a command over BattlEye RCON.
type BattleyeCmd struct {
	Command []string `arg:"" help:"The command to execute."`
}

// ExecCmd runs a command, given an explicit protocol, for scripting
// contexts where the protocol can't be inferred from a subcommand.
type ExecCmd struct {
	Protocol string   `required:"" enum:"source,battleye" help:"Protocol to use: source or battleye."`
	Command  []string `arg:"" help:"The command to execute."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rcon"),
		kong.Description("A command-line client for Source RCON and BattlEye RCON servers."),
		kong.UsageOnError(),
	)

	password, err := resolvePassword(cli.Password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitPasswordPromptFailure)
	}
	cli.Password = password

	var exitCode int
	switch ctx.Command() {
	case "source <command>":
		exitCode = runSource(&cli)
	case "battleye <command>":
		exitCode = runBattleye(&cli)
	case "exec <command>":
		exitCode = runExec(&cli)
	default:
		fmt.Fprintln(os.Stderr, "unknown command")
		exitCode = exitCommandFailure
	}
	os.Exit(exitCode)
}

// resolvePassword returns password unchanged if set, otherwise prompts on
// a TTY with echo disabled.
func resolvePassword(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("rcon: no password given and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("rcon: reading password: %w", err)
	}
	return string(b), nil
}

func runSource(cli *CLI) int {
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	var opts []source.Option
	opts = append(opts, source.Timeout(cli.Timeout))
	if cli.Source.Quirk == "palworld" {
		opts = append(opts, source.Quirk(source.Palworld))
	}

	conn, err := connectSource(ctx, cli.Server, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConnectFailure
	}
	defer conn.Close() // nolint: errcheck

	ok, err := conn.Login(ctx, cli.Password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitLoginIOFailure
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "rcon: login failed")
		return exitLoginRejected
	}

	reply, err := conn.RunUTF8(ctx, strings.Join(cli.Source.Command, " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCommandFailure
	}
	fmt.Println(reply)
	return 0
}

func runBattleye(cli *CLI) int {
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	conn, err := battleye.NewClient(cli.Server, battleye.Timeout(cli.Timeout))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConnectFailure
	}
	defer conn.Close() // nolint: errcheck

	ok, err := conn.Login(ctx, cli.Password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitLoginIOFailure
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "rcon: login failed")
		return exitLoginRejected
	}

	reply, err := conn.RunUTF8(ctx, strings.Join(cli.Battleye.Command, " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCommandFailure
	}
	fmt.Println(reply)
	return 0
}

func runExec(cli *CLI) int {
	switch cli.Exec.Protocol {
	case "source":
		cli.Source.Command = cli.Exec.Command
		return runSource(cli)
	case "battleye":
		cli.Battleye.Command = cli.Exec.Command
		return runBattleye(cli)
	default:
		fmt.Fprintln(os.Stderr, "rcon: --protocol must be source or battleye")
		return exitCommandFailure
	}
}

// connectSource opens the TCP stream without authenticating, so the CLI
// can report a connect failure and a login failure with distinct exit
// codes.
func connectSource(ctx context.Context, addr string, opts []source.Option) (*source.Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rcon: connect: %w", err)
	}
	return source.NewClient(conn, opts...)
}
