package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/cespare/backlightctl/internal/backlight"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

var version = "dev"

const (
	exitFailure = 1
	exitUsage   = 2
)

const long = `backlightctl prints or changes the brightness of the display backlight
through the sysfs backlight class.

The value sets or adjusts the brightness. A leading + or - adjusts relative
to the current brightness; otherwise the value is the new brightness. A
trailing % makes it a percentage of the maximum brightness. The result is
always clamped to [0, max].

Flags may also be given as BACKLIGHT_* environment variables, for example
BACKLIGHT_DEVICE=intel_backlight.`

const examples = `  backlightctl 200      set the brightness to 200
  backlightctl 50%      set the brightness to half of the maximum
  backlightctl +50      raise the brightness by 50
  backlightctl -10%     lower the brightness by a tenth of the maximum
  backlightctl --stats  print the maximum and current brightness`

// exitError carries the exit status out of the command. err, if set, has
// not been reported yet.
type exitError struct {
	code  int
	msg   string
	err   error
	usage bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type session interface {
	backlight.SessionWriter
	Close() error
}

type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger
	v      *viper.Viper
	dial   func() (session, error)
}

func newApp(fsys afero.Fs, stdout, stderr io.Writer) *app {
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	v := viper.New()
	v.SetEnvPrefix("backlight")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &app{
		fs:     fsys,
		stdout: stdout,
		stderr: stderr,
		log:    logger,
		v:      v,
		dial: func() (session, error) {
			s, err := backlight.DialLogind()
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

func main() {
	os.Exit(newApp(afero.NewOsFs(), os.Stdout, os.Stderr).run(os.Args[1:]))
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "backlightctl [flags] [value]",
		Short:         "Print or change the display backlight brightness",
		Long:          long,
		Example:       examples,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.runE,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	f := cmd.Flags()
	f.BoolP("stats", "s", false, "print backlight information; no value is set, even if one is given")
	f.BoolP("debug", "d", false, "log debug messages")
	f.StringP("output", "o", "text", "stats output format: text, json or yaml")
	f.String("device", "", "backlight device name (default: the first device found)")
	f.String("sysfs-dir", backlight.DefaultDir, "directory holding the backlight class devices")
	f.Bool("logind", false, "set the brightness through the systemd-logind session instead of writing sysfs")
	if err := a.v.BindPFlags(f); err != nil {
		panic(err)
	}
	return cmd
}

func (a *app) run(args []string) int {
	cmd := a.command()
	cmd.SetArgs(valuesLast(args))
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var exit *exitError
	if !errors.As(err, &exit) {
		// Rejected by cobra while parsing flags or arguments.
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		fmt.Fprint(a.stderr, cmd.UsageString())
		return exitUsage
	}
	if exit.usage {
		fmt.Fprint(a.stderr, cmd.UsageString())
	}
	if exit.err != nil {
		entry := a.log.WithError(exit.err)
		if errors.Is(exit.err, fs.ErrPermission) && unix.Geteuid() != 0 {
			entry = entry.WithField("hint", "write access to the brightness file is required; run as root, add a udev rule, or use --logind")
		}
		entry.Error(exit.msg)
	}
	return exit.code
}

var negativeValue = regexp.MustCompile(`^-[0-9]+%?$`)

// valuesLast moves negative values such as -10 or -5% behind a "--" so
// that the flag parser does not read them as shorthand flags.
func valuesLast(args []string) []string {
	flags := make([]string, 0, len(args))
	var values []string
	for i, arg := range args {
		if arg == "--" {
			values = append(values, args[i+1:]...)
			break
		}
		if negativeValue.MatchString(arg) {
			values = append(values, arg)
			continue
		}
		flags = append(flags, arg)
	}
	if len(values) == 0 {
		return flags
	}
	return append(append(flags, "--"), values...)
}

func (a *app) runE(cmd *cobra.Command, args []string) error {
	if a.v.GetBool("debug") {
		a.log.SetLevel(logrus.DebugLevel)
	}

	var value string
	if len(args) > 0 {
		value = args[0]
	}
	if err := backlight.ValidateValue(value); err != nil {
		return &exitError{code: exitUsage, msg: "invalid argument", err: err}
	}

	if a.v.GetBool("stats") {
		format := a.v.GetString("output")
		if !validFormat(format) {
			err := fmt.Errorf("%w: unknown output format %q", backlight.ErrInvalidArgument, format)
			return &exitError{code: exitUsage, msg: "invalid argument", err: err}
		}
		return a.stats(format)
	}

	// An empty value means that none was given.
	if value == "" {
		return &exitError{code: exitUsage, msg: "no value given", usage: true}
	}
	adj, err := backlight.ParseAdjustment(value)
	if err != nil {
		return &exitError{code: exitUsage, msg: "invalid argument", err: err}
	}
	if err := a.adjust(adj); err != nil {
		return &exitError{code: exitFailure, msg: "failed to adjust brightness", err: err}
	}
	return nil
}

func (a *app) locate() (*backlight.Device, error) {
	d, err := backlight.Locate(a.fs, a.v.GetString("sysfs-dir"), a.v.GetString("device"))
	if err != nil {
		return nil, err
	}
	if len(d.Candidates) > 1 && a.v.GetString("device") == "" {
		a.log.WithFields(logrus.Fields{
			"candidates": d.Candidates,
			"device":     d.Name,
		}).Debug("several backlight devices found; using the first (select one with --device)")
	}
	a.log.WithField("device", d.Name).Debug("located backlight device")
	return d, nil
}

func (a *app) adjust(adj backlight.Adjustment) error {
	d, err := a.locate()
	if err != nil {
		return fmt.Errorf("locating device: %w", err)
	}
	if a.v.GetBool("logind") {
		s, err := a.dial()
		if err != nil {
			return fmt.Errorf("connecting to logind: %w", err)
		}
		defer s.Close()
		d.Session = s
	}

	max, err := d.MaxBrightness()
	if err != nil {
		return fmt.Errorf("reading max brightness: %w", err)
	}
	cur, err := d.Brightness()
	if err != nil {
		return fmt.Errorf("reading brightness: %w", err)
	}
	target := backlight.Compute(cur, max, adj)
	a.log.WithFields(logrus.Fields{
		"device":     d.Name,
		"adjustment": adj.String(),
		"max":        max,
	}).Debugf("changing %d -> %d", cur, target)
	if err := d.SetBrightness(target); err != nil {
		return fmt.Errorf("writing brightness: %w", err)
	}
	return nil
}
