// Package backlight reads and writes the brightness of a sysfs backlight
// class device.
package backlight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/exp/slices"
)

// DefaultDir is where the kernel exposes backlight class devices.
const DefaultDir = "/sys/class/backlight"

// Subsystem is the device class name used by session writers.
const Subsystem = "backlight"

const (
	brightnessFile    = "brightness"
	maxBrightnessFile = "max_brightness"
)

// A SessionWriter changes brightness on behalf of the caller instead of
// writing the control file directly.
type SessionWriter interface {
	SetBrightness(subsystem, name string, value uint32) error
}

// A Device is a single backlight: the directory holding its brightness
// and max_brightness control files.
type Device struct {
	Name string
	// Candidates lists every usable device found while locating this one,
	// in sorted order.
	Candidates []string
	// Session, if set, receives validated writes in place of the
	// brightness file.
	Session SessionWriter

	fs  afero.Fs
	dir string
}

// Locate resolves the backlight device called name under dir. If name is
// empty, the first usable device in lexical order is chosen; hosts with
// several backlights should name one explicitly.
func Locate(fsys afero.Fs, dir, name string) (*Device, error) {
	names, err := candidates(fsys, dir)
	if err != nil {
		return nil, err
	}
	switch {
	case name == "" && len(names) == 0:
		return nil, fmt.Errorf("%w in %s", ErrDeviceNotFound, dir)
	case name == "":
		name = names[0]
	case !slices.Contains(names, name):
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, filepath.Join(dir, name))
	}
	return &Device{
		Name:       name,
		Candidates: names,
		fs:         fsys,
		dir:        filepath.Join(dir, name),
	}, nil
}

// candidates returns the sorted names of the entries of dir that expose
// both control files. Class entries are usually symlinks, so they are
// probed with Stat rather than filtered by mode.
func candidates(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	var names []string
	for _, e := range entries {
		ok, err := hasControls(fsys, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func hasControls(fsys afero.Fs, dir string) (bool, error) {
	for _, f := range []string{brightnessFile, maxBrightnessFile} {
		_, err := fsys.Stat(filepath.Join(dir, f))
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	return true, nil
}

func (d *Device) BrightnessPath() string    { return filepath.Join(d.dir, brightnessFile) }
func (d *Device) MaxBrightnessPath() string { return filepath.Join(d.dir, maxBrightnessFile) }

// MaxBrightness reads the largest value the device accepts.
func (d *Device) MaxBrightness() (uint64, error) {
	return d.read(d.MaxBrightnessPath())
}

// Brightness reads the current brightness.
func (d *Device) Brightness() (uint64, error) {
	return d.read(d.BrightnessPath())
}

func (d *Device) read(name string) (uint64, error) {
	b, err := afero.ReadFile(d.fs, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
	}
	return n, nil
}

// SetBrightness writes value as the new brightness. The value must
// already be within [0, MaxBrightness()].
func (d *Device) SetBrightness(value uint64) error {
	max, err := d.MaxBrightness()
	if err != nil {
		return err
	}
	if value > max {
		return fmt.Errorf("%w: %d exceeds max brightness %d", ErrInvalidValue, value, max)
	}
	if d.Session != nil {
		if err := d.Session.SetBrightness(Subsystem, d.Name, uint32(value)); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		return nil
	}
	return d.write(d.BrightnessPath(), value)
}

func (d *Device) write(name string, value uint64) error {
	f, err := d.fs.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := f.Write([]byte(strconv.FormatUint(value, 10))); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
