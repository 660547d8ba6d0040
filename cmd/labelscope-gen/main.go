package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"git.sr.ht/~whereswaldon/labelscope/backend"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: generate a synthetic time series CSV for labelscope
Usage:

 %[1]s -count 500 -output series.csv

OR, to grow the file while labelscope follows it:

 %[1]s -output live.csv -live & labelscope live.csv

`, os.Args[0])
	flag.PrintDefaults()
}

// generator produces a noisy daily sine wave with occasional spikes to give
// labelers something to find.
type generator struct {
	start     time.Time
	interval  time.Duration
	period    time.Duration
	amplitude float64
	noise     float64
	// malformed is the fraction of rows written with an unparseable value.
	malformed float64
	rng       *rand.Rand
}

func (g *generator) row(i int) []string {
	ts := g.start.Add(time.Duration(i) * g.interval)
	if g.malformed > 0 && g.rng.Float64() < g.malformed {
		return []string{ts.Format(time.RFC3339), "n/a"}
	}
	phase := 2 * math.Pi * float64(ts.Sub(g.start)) / float64(g.period)
	v := g.amplitude*math.Sin(phase) + g.rng.NormFloat64()*g.noise
	if g.rng.Float64() < 0.01 {
		v += 4 * g.amplitude
	}
	return []string{ts.Format(time.RFC3339), strconv.FormatFloat(v, 'f', 3, 64)}
}

func (g *generator) writeRows(w *csv.Writer, from, to int) error {
	for i := from; i < to; i++ {
		if err := w.Write(g.row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func main() {
	flag.Usage = usage
	start := flag.String("start", "", "timestamp of the first row (RFC 3339, default now minus count intervals)")
	interval := flag.Duration("interval", time.Minute, "time between rows")
	count := flag.Int("count", 1440, "number of rows to write")
	period := flag.Duration("period", 24*time.Hour, "period of the underlying wave")
	noise := flag.Float64("noise", 0.5, "standard deviation of the noise added to each value")
	malformed := flag.Float64("malformed", 0, "fraction of rows to write with an invalid value")
	seed := flag.Int64("seed", 1, "random seed")
	outputName := flag.String("output", "-", "output file for CSV data")
	live := flag.Bool("live", false, "keep appending a row every interval until interrupted")
	labelsOut := flag.String("labels-out", "", "also write the default label catalog to this file")
	flag.Parse()

	g := &generator{
		interval:  *interval,
		period:    *period,
		amplitude: 10,
		noise:     *noise,
		malformed: *malformed,
		rng:       rand.New(rand.NewSource(*seed)),
	}
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			log.Fatal("invalid start time", "start", *start, "err", err)
		}
		g.start = t
	} else {
		g.start = time.Now().UTC().Truncate(*interval).Add(-time.Duration(*count) * *interval)
	}

	if *labelsOut != "" {
		if err := backend.WriteCatalog(afero.NewOsFs(), *labelsOut, backend.DefaultLabels); err != nil {
			log.Fatal("failed writing label catalog", "path", *labelsOut, "err", err)
		}
	}

	var output io.WriteCloser
	if *outputName == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(*outputName)
		if err != nil {
			log.Fatal("failed opening output file", "path", *outputName, "err", err)
		}
		output = f
	}
	w := csv.NewWriter(output)
	if err := w.Write([]string{"timestamp", "value"}); err != nil {
		log.Fatal("failed writing header", "err", err)
	}
	if err := g.writeRows(w, 0, *count); err != nil {
		log.Fatal("failed writing rows", "err", err)
	}
	if !*live {
		if err := output.Close(); err != nil {
			log.Fatal("failed closing output", "err", err)
		}
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	next := *count
	for {
		select {
		case <-sigChan:
			// We've gotten an interrupt; shut down.
			if err := output.Close(); err != nil {
				log.Error("failed closing output", "err", err)
			}
			return
		case <-ticker.C:
			if err := g.writeRows(w, next, next+1); err != nil {
				log.Fatal("failed writing row", "err", err)
			}
			next++
		}
	}
}
