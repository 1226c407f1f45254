package backlight

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest          = "org.freedesktop.login1"
	logindSessionPath   = "/org/freedesktop/login1/session/auto"
	logindSetBrightness = "org.freedesktop.login1.Session.SetBrightness"
)

type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// LogindSession is a SessionWriter backed by systemd-logind. logind lets
// the owner of the active session change the brightness of its seat's
// devices without write access to sysfs.
type LogindSession struct {
	conn *dbus.Conn
	obj  caller
}

// DialLogind connects to the system bus and binds to the caller's session.
func DialLogind() (*LogindSession, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &LogindSession{
		conn: conn,
		obj:  conn.Object(logindDest, dbus.ObjectPath(logindSessionPath)),
	}, nil
}

func (s *LogindSession) SetBrightness(subsystem, name string, value uint32) error {
	err := s.obj.Call(logindSetBrightness, 0, subsystem, name, value).Store()
	if err != nil {
		return fmt.Errorf("logind: failed to set %s/%s to %d: %w", subsystem, name, value, err)
	}
	return nil
}

func (s *LogindSession) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
