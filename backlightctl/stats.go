package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

type stats struct {
	Device       string   `json:"device,omitempty" yaml:"device,omitempty"`
	Max          *uint64  `json:"max,omitempty" yaml:"max,omitempty"`
	MaxError     string   `json:"max_error,omitempty" yaml:"max_error,omitempty"`
	Current      *uint64  `json:"current,omitempty" yaml:"current,omitempty"`
	CurrentError string   `json:"current_error,omitempty" yaml:"current_error,omitempty"`
	Percent      *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

func (s *stats) ok() bool { return s.MaxError == "" && s.CurrentError == "" }

func validFormat(format string) bool {
	switch format {
	case "text", "json", "yaml":
		return true
	}
	return false
}

// stats reads both values independently, so one can be shown even when
// the other fails.
func (a *app) stats(format string) error {
	var s stats
	d, err := a.locate()
	if err != nil {
		s.MaxError = err.Error()
		s.CurrentError = err.Error()
	} else {
		s.Device = d.Name
		if max, err := d.MaxBrightness(); err != nil {
			s.MaxError = err.Error()
		} else {
			s.Max = &max
		}
		if cur, err := d.Brightness(); err != nil {
			s.CurrentError = err.Error()
		} else {
			s.Current = &cur
		}
		if s.ok() && *s.Max > 0 {
			pct := math.Round(float64(*s.Current)/float64(*s.Max)*1000) / 10
			s.Percent = &pct
		}
	}

	if err := writeStats(a.stdout, format, &s); err != nil {
		return &exitError{code: exitFailure, msg: "failed to print stats", err: err}
	}
	if !s.ok() {
		return &exitError{code: exitFailure}
	}
	return nil
}

func writeStats(w io.Writer, format string, s *stats) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case "yaml":
		b, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	max := "Failed to get max brightness: " + s.MaxError
	if s.Max != nil {
		max = strconv.FormatUint(*s.Max, 10)
	}
	cur := "Failed to get brightness: " + s.CurrentError
	if s.Current != nil {
		cur = strconv.FormatUint(*s.Current, 10)
	}
	_, err := fmt.Fprintf(w, "Max: %s\nCurrent: %s\n", max, cur)
	return err
}
