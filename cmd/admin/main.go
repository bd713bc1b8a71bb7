package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"blockscape.ai/internal/persistence/framelog"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "sessions":
			sessionsCmd(os.Args[2:])
			return
		case "frames":
			framesCmd(os.Args[2:])
			return
		case "health":
			healthCmd(os.Args[2:])
			return
		case "blocks":
			blocksCmd(os.Args[2:])
			return
		}
	}
	logsCmd(os.Args[1:])
}

// logsCmd lists the frame log files with their record counts.
func logsCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	files, err := framelog.Files(filepath.Join(*dataDir, "frames"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, path := range files {
		n := 0
		err := framelog.ReadFile(path, func(framelog.Record) error {
			n++
			return nil
		})
		if err != nil {
			fmt.Printf("%s\terror: %v\n", filepath.Base(path), err)
			continue
		}
		fmt.Printf("%s\t%d\n", filepath.Base(path), n)
	}
}
