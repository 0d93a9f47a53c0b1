// Package loader implements the bulk CSV ingestion driver: a hand-rolled
// line scanner for the bulk-load mini-grammar, driving the operations core
// via an *engine.Engine.
package loader

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"time"

	"github.com/sauronlib/sauron/internal/engine"
	pkgerrors "github.com/sauronlib/sauron/pkg/errors"
)

// Result tallies the outcome of a bulk-load run.
type Result struct {
	LinesProcessed int64
	LinesSkipped   int64
	Sets           int64
	Updates        int64
	ParseErrors    int64
	Elapsed        time.Duration
	LinesPerSecond float64
}

// LoadFile opens path and loads it into e. A non-openable file is an I/O
// failure with no partial effect; the returned Result is the zero value
// in that case.
func LoadFile(e *engine.Engine, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, pkgerrors.ClassifyIOError(err, "bulk load open", path, 0)
	}
	defer f.Close()
	return Load(e, f)
}

// LoadBuffer loads buf into e; semantics are identical to LoadFile.
func LoadBuffer(e *engine.Engine, buf []byte) (Result, error) {
	return Load(e, bytes.NewReader(buf))
}

// Load reads lines from r, applying each to e, and returns the tally. A
// per-line parse failure is counted and skipped, never fatal; only a
// reader error not caused by normal EOF aborts the run early.
func Load(e *engine.Engine, r io.Reader) (Result, error) {
	start := time.Now()
	var res Result
	e.Log().Infow("bulk load starting")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lr := parseLine(scanner.Bytes())
		if lr.skip {
			continue
		}
		res.LinesProcessed++

		if !lr.valid {
			res.LinesSkipped++
			res.ParseErrors++
			continue
		}

		switch lr.op {
		case opSetAbsolute:
			e.Set(lr.ip, lr.delta)
			res.Sets++
		case opRelative:
			e.Increment(lr.ip, lr.delta)
			res.Updates++
		}
	}

	res.Elapsed = time.Since(start)
	if res.Elapsed > 0 {
		res.LinesPerSecond = float64(res.LinesProcessed) / res.Elapsed.Seconds()
	}

	if err := scanner.Err(); err != nil {
		return res, pkgerrors.ClassifyIOError(err, "bulk load read", "", int64(res.LinesProcessed))
	}

	e.Log().Infow(
		"bulk load complete",
		"linesProcessed", res.LinesProcessed,
		"sets", res.Sets,
		"updates", res.Updates,
		"parseErrors", res.ParseErrors,
		"linesPerSecond", res.LinesPerSecond,
	)
	return res, nil
}
