package client

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"xeon-pwm/internal/protocol"
)

// scripted answers every read from a canned response and records requests.
type scripted struct {
	req  bytes.Buffer
	resp *strings.Reader
}

func newScripted(resp string) *scripted {
	return &scripted{resp: strings.NewReader(resp)}
}

func (s *scripted) Read(p []byte) (int, error)  { return s.resp.Read(p) }
func (s *scripted) Write(p []byte) (int, error) { return s.req.Write(p) }

func TestDutyCycle(t *testing.T) {
	conn := newScripted("170\r\n0\r\n")
	c := New(conn)

	d, err := c.DutyCycle()
	require.NoError(t, err)
	require.Equal(t, uint32(170), d)
	require.Equal(t, "GET_DT_CYCLE\n", conn.req.String())
}

func TestDutyCycle_ZeroIsPayloadNotResult(t *testing.T) {
	c := New(newScripted("0\r\n0\r\n"))
	d, err := c.DutyCycle()
	require.NoError(t, err)
	require.Equal(t, uint32(0), d)
}

func TestSetDutyCycle_SkipsDebugTrace(t *testing.T) {
	conn := newScripted("Read duty_cycle: 100\r\nCurrent duty_cycle: 100\r\n0\r\n")
	c := New(conn)
	require.NoError(t, c.SetDutyCycle(100))
	require.Equal(t, "SET_DT_CYCLE|100\n", conn.req.String())
}

func TestSetDutyCycle_RangeUsesLastSettings(t *testing.T) {
	conn := newScripted("")
	c := New(conn)

	err := c.SetDutyCycle(256)
	require.ErrorIs(t, err, ErrOutOfRange)
	err = c.SetDutyCycle(-1)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Zero(t, conn.req.Len())
}

func TestSettings_UpdatesLastSettings(t *testing.T) {
	conn := newScripted("0|25000|10|4|1023\r\n0\r\n0\r\n")
	c := New(conn)
	require.Equal(t, DefaultSettings(), c.LastSettings())

	r, err := c.Settings()
	require.NoError(t, err)
	require.Equal(t, protocol.SettingsReport{Channel: 0, FrequencyHz: 25000, ResolutionBits: 10, Pin: 4, MaxDutyCycle: 1023}, r)
	require.Equal(t, r, c.LastSettings())

	require.NoError(t, c.SetDutyCycle(1023))
}

func TestSettings_SkipsStartupBannerNoise(t *testing.T) {
	c := New(newScripted("garbage\r\n2|30000|8|4|255\r\n0\r\n"))
	r, err := c.Settings()
	require.NoError(t, err)
	require.Equal(t, uint32(2), r.Channel)
}

func TestPrettySettings(t *testing.T) {
	conn := newScripted("PWM Channel: 0\r\nPWM Frequency: 25000 Hz\r\nPWM Resolution: 8\r\nPWM GPIO pin: 4\r\nPWM Max duty cycle: 255\r\n0\r\n")
	c := New(conn)
	lines, err := c.PrettySettings()
	require.NoError(t, err)
	require.Len(t, lines, 5)
	require.Equal(t, "PWM GPIO pin: 4", lines[3])
	require.Equal(t, "SHOW_PWM_SETTINGS|PRETTY\n", conn.req.String())
}

func TestSetSetting(t *testing.T) {
	conn := newScripted("0\r\n")
	c := New(conn)
	require.NoError(t, c.SetSetting(protocol.SettingFrequency, 30000))
	require.Equal(t, "SET_PWM_SETTING|FREQUENCY|30000\n", conn.req.String())

	require.ErrorIs(t, c.SetSetting(protocol.SettingChannel, -1), ErrOutOfRange)
}

func TestSetSetting_ResultError(t *testing.T) {
	c := New(newScripted("4\r\n"))
	err := c.SetSetting(protocol.SettingPin, 5)

	var rerr *ResultError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, protocol.ErrPwmDisabled, rerr.Result)
	require.Equal(t, protocol.CmdSetPwmSetting, rerr.Command)
	require.Contains(t, err.Error(), "ERR_PWM_DISABLED")
}

func TestResultErrorBeforePayload(t *testing.T) {
	c := New(newScripted("1\r\n"))
	_, err := c.Settings()
	var rerr *ResultError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, protocol.ErrInvalidCommand, rerr.Result)
}

func TestShortResponse(t *testing.T) {
	c := New(newScripted("170\r\n"))
	_, err := c.DutyCycle()
	require.ErrorIs(t, err, ErrShortResponse)
}

type timeoutConn struct{}

func (timeoutConn) Read([]byte) (int, error)    { return 0, ErrTimeout }
func (timeoutConn) Write(p []byte) (int, error) { return len(p), nil }

func TestTimeoutPassesThrough(t *testing.T) {
	c := New(timeoutConn{})
	require.ErrorIs(t, c.ResetSettings(), ErrTimeout)
}

func TestRestart_WritesOnly(t *testing.T) {
	conn := newScripted("")
	c := New(conn)
	require.NoError(t, c.Restart())
	require.Equal(t, "RESTART\n", conn.req.String())
}

type failingWriter struct{ io.Reader }

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("port gone") }

func TestWriteError(t *testing.T) {
	c := New(failingWriter{strings.NewReader("")})
	err := c.ResetSettings()
	require.Error(t, err)
	require.Contains(t, err.Error(), "write RESET_PWM_SETTINGS")
}
