package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// evalRecord is one row of optimize_log.csv.
type evalRecord struct {
	Eval       int     `csv:"eval"`
	Fitness    float64 `csv:"fitness"`
	Complexity int     `csv:"complexity"`
	FrameMS    float64 `csv:"mean_frame_ms"`
	Stalled    bool    `csv:"stalled"`
	Params     string  `csv:"params"` // key=value pairs separated by spaces
}

// evalLog appends evaluation rows, writing the header once.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func newEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &evalLog{f: f}, nil
}

// Write logs one evaluation.
func (l *evalLog) Write(n int, fitness float64, res evalResult, pv *ParamVector, values []float64) error {
	pairs := make([]string, len(pv.Specs))
	for i, spec := range pv.Specs {
		pairs[i] = fmt.Sprintf("%s=%.4f", spec.Name, values[i])
	}
	records := []evalRecord{{
		Eval:       n,
		Fitness:    fitness,
		Complexity: res.complexity,
		FrameMS:    float64(res.meanFrame.Microseconds()) / 1000,
		Stalled:    res.stalled,
		Params:     strings.Join(pairs, " "),
	}}

	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(records, l.f)
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

func (l *evalLog) Close() error {
	return l.f.Close()
}
