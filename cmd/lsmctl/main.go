// lsmctl is a small interactive CLI for driving an LSM cursor.
//
// Usage:
//
//	lsmctl [--dir path] [--threshold bytes]
//
// Commands (in REPL):
//
//	get <key>              Look up a key
//	put <key> <value>      Insert or update a key
//	delete <key>           Remove a key
//	scan [-reverse]         Iterate all keys in order
//	near <key>             search_near the given key
//	switch                 Force a chunk switch
//	help                   Show this help
//	exit / quit            Exit
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"lsmtree/internal/compare"
	"lsmtree/pkg/db"
	"lsmtree/pkg/lsm"
)

func main() {
	dir := flag.StringP("dir", "d", "./lsmctl-data", "database directory")
	threshold := flag.UintP("threshold", "t", 0, "chunk switch threshold in bytes (not applied: the tree uses config.yaml's threshold or the default)")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "lsmctl: %v\n", err)
		os.Exit(1)
	}

	store, err := db.Open(*dir, compare.Default, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsmctl: open %s: %v\n", *dir, err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if *threshold > 0 {
		// The tree was already opened with the config file's (or default)
		// threshold; the flag's value is not passed to it.
		fmt.Fprintf(os.Stderr, "lsmctl: note: --threshold is not applied; set threshold in config.yaml\n")
	}

	r := &repl{store: store}
	if err := r.run(); err != nil {
		fmt.Fprintf(os.Stderr, "lsmctl: %v\n", err)
		os.Exit(1)
	}
}

type repl struct {
	store *db.DB
	liner *liner.State
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()
	r.liner.SetCtrlCAborts(true)

	fmt.Println("lsmctl - LSM cursor REPL. Type 'help' for commands.")

	for {
		line, err := r.liner.Prompt("lsmctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nbye")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("bye")
			return nil
		case "help", "?":
			r.printHelp()
		case "get":
			r.cmdGet(args)
		case "put":
			r.cmdPut(args)
		case "delete", "del":
			r.cmdDelete(args)
		case "scan":
			r.cmdScan(args)
		case "near":
			r.cmdNear(args)
		case "switch":
			r.cmdSwitch()
		case "stats":
			r.cmdStats()
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}

func (r *repl) printHelp() {
	fmt.Println(`commands:
  get <key>
  put <key> <value>
  delete <key>
  scan [-reverse]
  near <key>
  switch
  stats
  exit`)
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <key>")
		return
	}
	value, ok, err := r.store.Get([]byte(args[0]))
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("(not found)")
		return
	}
	fmt.Printf("%s\n", value)
}

func (r *repl) cmdPut(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: put <key> <value>")
		return
	}
	if err := r.store.Set([]byte(args[0]), []byte(args[1])); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (r *repl) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: delete <key>")
		return
	}
	if err := r.store.Delete([]byte(args[0])); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (r *repl) cmdScan(args []string) {
	reverse := len(args) == 1 && (args[0] == "-reverse" || args[0] == "--reverse")

	c, err := r.store.NewCursor()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer func() { _ = c.Close() }()

	if err := c.Reset(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	n := 0
	for {
		var ok bool
		if reverse {
			ok, err = c.Prev()
		} else {
			ok, err = c.Next()
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if !ok {
			break
		}
		fmt.Printf("%s = %s\n", c.Key(), c.Value())
		n++
	}
	fmt.Printf("(%d entries)\n", n)
}

func (r *repl) cmdNear(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: near <key>")
		return
	}
	c, err := r.store.NewCursor()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer func() { _ = c.Close() }()

	c.SetKey([]byte(args[0]))
	exact, ok, err := c.SearchNear()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("(empty tree)")
		return
	}
	switch {
	case exact == 0:
		fmt.Printf("%s = %s (exact)\n", c.Key(), c.Value())
	case exact < 0:
		fmt.Printf("%s = %s (smaller)\n", c.Key(), c.Value())
	default:
		fmt.Printf("%s = %s (larger)\n", c.Key(), c.Value())
	}
}

func (r *repl) cmdStats() {
	f := lsm.NewTreeFlusher(r.store.Tree())
	fmt.Printf("primary arena: %d/%d bytes used, %d available\n", f.UsedBytes(), f.TotalBytes(), f.AvailableBytes())
}

func (r *repl) cmdSwitch() {
	tr := r.store.Tree()
	tr.Lock()
	defer tr.Unlock()
	if err := tr.Switch(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("switched, dsk_gen=%d\n", tr.DskGen())
}
