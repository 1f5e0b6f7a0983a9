package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ksobolewski/multirelay-controller/internal/eeprom"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, command string
	var addr, value int
	flag.StringVar(&dbPath, "db", "data/relaystate.db", "Path to the relay state database file")
	flag.StringVar(&command, "cmd", "", "Command to run: dump, reset, set")
	flag.IntVar(&addr, "addr", -1, "Address for set")
	flag.IntVar(&value, "value", 0, "Byte value for set (0 or 1)")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of multirelay-debug:")
		fmt.Println("  -db string\tPath to the relay state database file (default 'data/relaystate.db')")
		fmt.Println("  -cmd string\tCommand to run: dump, reset, set")
		fmt.Println("  -addr int\tAddress for set")
		fmt.Println("  -value int\tByte value for set (0 or 1)")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	store, err := eeprom.OpenSQLite(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch command {
	case "dump":
		bytes, err := store.Dump()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		addrs := make([]int, 0, len(bytes))
		for a := range bytes {
			addrs = append(addrs, a)
		}
		sort.Ints(addrs)
		for _, a := range addrs {
			fmt.Printf("addr=%d value=%d\n", a, bytes[a])
		}
	case "reset":
		if err := store.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("all persisted relay states zeroed")
	case "set":
		if addr < 0 || value < 0 || value > 1 {
			fmt.Fprintln(os.Stderr, "error: set requires -addr >= 0 and -value 0 or 1")
			os.Exit(1)
		}
		if err := store.WriteByte(addr, byte(value)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("addr=%d value=%d written\n", addr, value)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(1)
	}
}
