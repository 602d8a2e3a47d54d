package files

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/nxt.go/pkg/cli/sh"
	"github.com/robotalks/nxt.go/pkg/nxt/cmds"
	"github.com/robotalks/nxt.go/pkg/nxt/packet"
)

// FileInfo is an entry of a file listing.
type FileInfo struct {
	Name string `json:"name"`
	Size uint32 `json:"size"`
}

// List searches files matching pattern.
func List(s sh.Submitter, pattern string) ([]FileInfo, error) {
	reply, err := s.Submit(cmds.FindFirst{Pattern: pattern})
	if sh.IsStatus(err, packet.StatusFileNotFound) {
		return []FileInfo{}, nil
	} else if err != nil {
		return nil, err
	}
	var files []FileInfo
	for {
		found, err := packet.Upcast[*cmds.FindReply](reply)
		if err != nil {
			return files, err
		}
		files = append(files, FileInfo{Name: found.Filename(), Size: found.FileSize()})
		reply, err = s.Submit(cmds.FindNext{Handle: found.Handle()})
		if err != nil {
			s.Submit(cmds.Close{Handle: found.Handle()})
			if sh.IsStatus(err, packet.StatusFileNotFound) {
				return files, nil
			}
			return files, err
		}
	}
}

var (
	// ListCmd lists files.
	ListCmd = ishell.Cmd{
		Name:    "ls",
		Aliases: []string{"dir"},
		Help:    "[PATTERN]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			pattern := "*.*"
			if len(c.Args) > 0 {
				pattern = c.Args[0]
			}
			s := sh.ShellFrom(c)
			files, err := List(s, pattern)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				sh.Output(c, files, "")
				return
			}
			for _, f := range files {
				c.Printf("%-20s %8d\n", f.Name, f.Size)
			}
		}),
	}

	// RemoveCmd deletes a file.
	RemoveCmd = ishell.Cmd{
		Name:    "rm",
		Aliases: []string{"del"},
		Help:    "FILE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			if _, err := sh.DoCommand(c, cmds.Delete{Filename: c.Args[0]}); err == nil {
				sh.OK(c)
			}
		}),
	}
)

func init() {
	sh.AddCmds(&ListCmd, &RemoveCmd)
}
