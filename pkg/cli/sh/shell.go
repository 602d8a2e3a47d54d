package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/comm"
	"github.com/robotalks/nxt.go/pkg/nxt/comm/serial"
	"github.com/robotalks/nxt.go/pkg/nxt/env"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// DefaultTimeout bounds a single command issued from the shell.
const DefaultTimeout = 5 * time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *comm.Conn

	ctx    context.Context
	cancel func()
	opened *comm.Config
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&StatusCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell, the connection scheduler starts running
// immediately.
func New(conf *env.Config, opener comm.Opener) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Shell:  ishell.New(),
		Config: conf,
		Conn:   comm.NewConn(opener),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.Conn.Run(s.ctx)
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires an opened port.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).opened == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Submitter runs a single command.
type Submitter interface {
	Submit(cmds.Builder) (packet.Reply, error)
}

// IsStatus tells whether err is a reply failed with status.
func IsStatus(err error, status byte) bool {
	var se *packet.StatusError
	return errors.As(err, &se) && se.Status == status
}

// ConnSubmitter submits commands to a Conn and waits for the replies.
// A reply carrying a failure status is returned as error.
type ConnSubmitter struct {
	Conn    *comm.Conn
	Timeout time.Duration
}

// Submit implements Submitter.
func (s ConnSubmitter) Submit(b cmds.Builder) (packet.Reply, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	reply, err := s.Conn.Submit(ctx, b.Command(), comm.PriorityStandard)
	if err != nil {
		return nil, err
	}
	if err = reply.Base().Err(); err != nil {
		return reply, err
	}
	return reply, nil
}

// Submit implements Submitter.
func (s *Shell) Submit(b cmds.Builder) (packet.Reply, error) {
	return ConnSubmitter{Conn: s.Conn, Timeout: s.Timeout}.Submit(b)
}

// DoCommand runs a command and prints the error if any.
func DoCommand(c *ishell.Context, b cmds.Builder) (packet.Reply, error) {
	reply, err := ShellFrom(c).Submit(b)
	if err != nil {
		c.Err(err)
	}
	return reply, err
}

// Output prints v as JSON when -json is set, otherwise text.
func Output(c *ishell.Context, v interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// OK prints the acknowledgement of a command without reply data.
func OK(c *ishell.Context) {
	Output(c, map[string]bool{"ok": true}, "OK")
}

// Open opens the port described by conf.
func (s *Shell) Open(conf comm.Config) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.Timeout)
	defer cancel()
	if err := s.Conn.Open(ctx, conf); err != nil {
		return err
	}
	s.opened = &conf
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conf.PortName()))
	return nil
}

// CloseConn closes the current port.
func (s *Shell) CloseConn() error {
	s.opened = nil
	s.Shell.SetPrompt(unopenedPrompt)
	ctx, cancel := context.WithTimeout(s.ctx, s.Timeout)
	defer cancel()
	return s.Conn.Close(ctx)
}

// Stop closes the port and stops the scheduler.
func (s *Shell) Stop() {
	s.CloseConn()
	s.cancel()
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Stop()
	if s.AutoOpen && s.Config.Port != "" {
		conf, err := s.Config.ConnConfig()
		if err != nil {
			log.Fatalln(err)
		}
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", conf.PortName())
		}
		if err := s.Open(conf); err != nil {
			log.Printf("open %q failed: %v", conf.PortName(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseOpenArgs parses PORT [BAUD] [usb|bt] on top of conf.
func ParseOpenArgs(conf *env.Config, args []string) (comm.Config, error) {
	c := *conf
	for n, arg := range args {
		switch {
		case n == 0:
			c.Port = arg
		case isNumber(arg):
			val, _ := strconv.Atoi(arg)
			c.BaudRate = val
		default:
			c.Type = arg
		}
	}
	return c.ConnConfig()
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				Output(c, ports, "")
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a serial port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "PORT [BAUD] [usb|bt]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			conf, err := ParseOpenArgs(s.Config, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.Open(conf); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current port.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).CloseConn(); err != nil {
				c.Err(err)
			}
		},
	}

	// StatusCmd shows the scheduler state.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			snap, err := ShellFrom(c).Conn.Snapshot(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			Output(c, snap, FormatSnapshot(snap))
		},
	}

	// StatsCmd shows the per command timing statistics.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			stats := s.Conn.Tracker.Snapshot()
			if s.OutputJSON {
				if stats == nil {
					stats = []comm.CommandStat{}
				}
				Output(c, stats, "")
				return
			}
			for _, stat := range stats {
				c.Println(FormatStat(stat))
			}
		},
	}
)

// FormatSnapshot prints a scheduler snapshot for display.
func FormatSnapshot(snap comm.Snapshot) string {
	text := fmt.Sprintf("%s connected=%v", snap.Phase, snap.Connected)
	if snap.Phase != comm.PhaseClosed {
		text += " port=" + snap.Config.PortName()
	}
	text += fmt.Sprintf(" queued=%d/%d", snap.Priority, snap.Standard)
	if snap.Pending {
		text += fmt.Sprintf(" pending=0x%02x", snap.PendingCode)
	}
	return text
}

// FormatStat prints a command timing for display.
func FormatStat(stat comm.CommandStat) string {
	return fmt.Sprintf("0x%02x count=%d avg=%v min=%v",
		stat.Code, stat.Count, stat.Average(), stat.Minimum())
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.Default(), serial.Opener{}).WithAutoOpen(true).Run(flag.Args()...)
}
