package backlight

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSysfs(t *testing.T, devices map[string][2]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(DefaultDir, 0o755))
	for name, v := range devices {
		dir := filepath.Join(DefaultDir, name)
		require.NoError(t, fsys.MkdirAll(dir, 0o755))
		if v[0] != "" {
			require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, "brightness"), []byte(v[0]), 0o644))
		}
		if v[1] != "" {
			require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, "max_brightness"), []byte(v[1]), 0o444))
		}
	}
	return fsys
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		devices map[string][2]string
		device  string
		want    string
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "single",
			devices: map[string][2]string{"intel_backlight": {"50\n", "100\n"}},
			want:    "intel_backlight",
			wantErr: assert.NoError,
		},
		{
			name: "first in order",
			devices: map[string][2]string{
				"nvidia_0":        {"1", "10"},
				"acpi_video0":     {"1", "10"},
				"intel_backlight": {"1", "10"},
			},
			want:    "acpi_video0",
			wantErr: assert.NoError,
		},
		{
			name: "named",
			devices: map[string][2]string{
				"acpi_video0":     {"1", "10"},
				"intel_backlight": {"1", "10"},
			},
			device:  "intel_backlight",
			want:    "intel_backlight",
			wantErr: assert.NoError,
		},
		{
			name: "incomplete entries skipped",
			devices: map[string][2]string{
				"acpi_video0":     {"1", ""},
				"intel_backlight": {"1", "10"},
			},
			want:    "intel_backlight",
			wantErr: assert.NoError,
		},
		{
			name:    "none",
			devices: map[string][2]string{},
			wantErr: isDeviceNotFound,
		},
		{
			name:    "named but missing",
			devices: map[string][2]string{"intel_backlight": {"1", "10"}},
			device:  "amdgpu_bl0",
			wantErr: isDeviceNotFound,
		},
		{
			name:    "named but incomplete",
			devices: map[string][2]string{"intel_backlight": {"", "10"}},
			device:  "intel_backlight",
			wantErr: isDeviceNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Locate(newSysfs(t, tt.devices), DefaultDir, tt.device)
			tt.wantErr(t, err)
			if err == nil {
				assert.Equal(t, tt.want, d.Name)
				assert.Equal(t, filepath.Join(DefaultDir, tt.want, "brightness"), d.BrightnessPath())
				assert.Equal(t, filepath.Join(DefaultDir, tt.want, "max_brightness"), d.MaxBrightnessPath())
			}
		})
	}
}

func TestLocate_NoClassDir(t *testing.T) {
	_, err := Locate(afero.NewMemMapFs(), DefaultDir, "")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestLocate_Candidates(t *testing.T) {
	fsys := newSysfs(t, map[string][2]string{
		"intel_backlight": {"1", "10"},
		"acpi_video0":     {"1", "10"},
	})
	d, err := Locate(fsys, DefaultDir, "intel_backlight")
	require.NoError(t, err)
	assert.Equal(t, []string{"acpi_video0", "intel_backlight"}, d.Candidates)
}

func isDeviceNotFound(t assert.TestingT, err error, _ ...interface{}) bool {
	return assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestDevice_Read(t *testing.T) {
	tests := []struct {
		name        string
		brightness  string
		max         string
		wantCurrent uint64
		wantMax     uint64
		currentErr  error
		maxErr      error
	}{
		{name: "plain", brightness: "50", max: "100", wantCurrent: 50, wantMax: 100},
		{name: "whitespace", brightness: " 7\n", max: "\t120000\n", wantCurrent: 7, wantMax: 120000},
		{name: "zero", brightness: "0\n", max: "1\n", wantMax: 1},
		{name: "garbage", brightness: "abc\n", max: "100\n", wantMax: 100, currentErr: ErrParse},
		{name: "negative", brightness: "5\n", max: "-1\n", wantCurrent: 5, maxErr: ErrParse},
		{name: "too large", brightness: "5\n", max: "4294967296\n", wantCurrent: 5, maxErr: ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := newSysfs(t, map[string][2]string{"intel_backlight": {tt.brightness, tt.max}})
			d, err := Locate(fsys, DefaultDir, "")
			require.NoError(t, err)

			current, err := d.Brightness()
			if tt.currentErr != nil {
				assert.ErrorIs(t, err, tt.currentErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantCurrent, current)
			}

			max, err := d.MaxBrightness()
			if tt.maxErr != nil {
				assert.ErrorIs(t, err, tt.maxErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantMax, max)
			}
		})
	}
}

func TestDevice_Read_Missing(t *testing.T) {
	fsys := newSysfs(t, map[string][2]string{"intel_backlight": {"50", "100"}})
	d, err := Locate(fsys, DefaultDir, "")
	require.NoError(t, err)
	require.NoError(t, fsys.Remove(d.BrightnessPath()))

	_, err = d.Brightness()
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), d.BrightnessPath())
}

func TestDevice_SetBrightness(t *testing.T) {
	fsys := newSysfs(t, map[string][2]string{"intel_backlight": {"50\n", "100\n"}})
	d, err := Locate(fsys, DefaultDir, "")
	require.NoError(t, err)

	for _, v := range []uint64{60, 100, 0, 7} {
		require.NoError(t, d.SetBrightness(v))
		got, err := d.Brightness()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	content, err := afero.ReadFile(fsys, d.BrightnessPath())
	require.NoError(t, err)
	assert.Equal(t, "7", string(content))
}

func TestDevice_SetBrightness_OutOfRange(t *testing.T) {
	fsys := newSysfs(t, map[string][2]string{"intel_backlight": {"50", "100"}})
	d, err := Locate(fsys, DefaultDir, "")
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetBrightness(101), ErrInvalidValue)
	content, err := afero.ReadFile(fsys, d.BrightnessPath())
	require.NoError(t, err)
	assert.Equal(t, "50", string(content))
}

func TestDevice_SetBrightness_ReadOnly(t *testing.T) {
	d, err := Locate(afero.NewReadOnlyFs(newSysfs(t, map[string][2]string{"intel_backlight": {"50", "100"}})), DefaultDir, "")
	require.NoError(t, err)

	err = d.SetBrightness(60)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestDevice_SetBrightness_BadMax(t *testing.T) {
	fsys := newSysfs(t, map[string][2]string{"intel_backlight": {"50", "lots"}})
	d, err := Locate(fsys, DefaultDir, "")
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetBrightness(60), ErrParse)
}
