package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	threads    = flag.Int("threads", 1, "number of search threads")
	bookPath   = flag.String("book", "", "Polyglot opening book file")
	ownBook    = flag.Bool("ownbook", false, "play book moves without searching")
	overhead   = flag.Duration("move-overhead", 10*time.Millisecond, "clock allowance for I/O latency")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	// Giving a book on the command line implies playing from it.
	eng := engine.NewEngine(engine.Options{
		HashMB:       *hashMB,
		Threads:      *threads,
		BookPath:     *bookPath,
		OwnBook:      *ownBook || *bookPath != "",
		MoveOverhead: *overhead,
	})

	protocol := uci.New(eng, os.Stdout)
	if err := protocol.Run(os.Stdin); err != nil {
		log.Fatal(err)
	}
}
