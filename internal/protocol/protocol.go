package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// ArgSeparator splits a request into its command name and arguments.
	ArgSeparator = '|'
	// LineEnd terminates every response line.
	LineEnd = "\r\n"
	// PrettyArg asks SHOW_PWM_SETTINGS for labelled output.
	PrettyArg = "PRETTY"
)

// Result is the numeric code written after every command.
type Result uint32

const (
	ErrSuccess           Result = 0
	ErrInvalidCommand    Result = 1
	ErrPwmInvalidSetting Result = 2
	// ErrPwmInvalidNaN is part of the wire enumeration but no handler returns it.
	ErrPwmInvalidNaN Result = 3
	ErrPwmDisabled   Result = 4
)

func (r Result) String() string {
	switch r {
	case ErrSuccess:
		return "ERR_SUCCESS"
	case ErrInvalidCommand:
		return "ERR_INVALID_COMMAND"
	case ErrPwmInvalidSetting:
		return "ERR_PWM_INVALID_SETTING"
	case ErrPwmInvalidNaN:
		return "ERR_PWM_INVALID_NAN"
	case ErrPwmDisabled:
		return "ERR_PWM_DISABLED"
	default:
		return "RESULT(" + strconv.FormatUint(uint64(r), 10) + ")"
	}
}

// ParseResult parses a result code line.
func ParseResult(s string) (Result, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("protocol: parse result %q: %w", s, err)
	}
	return Result(n), nil
}

// CommandID identifies a command independently of its wire name.
type CommandID int

const (
	CmdUnknown CommandID = iota
	CmdRestart
	CmdSetDutyCycle
	CmdGetDutyCycle
	CmdSetPwmSetting
	CmdShowPwmSettings
	CmdResetPwmSettings
)

var commandNames = map[CommandID]string{
	CmdRestart:          "RESTART",
	CmdSetDutyCycle:     "SET_DT_CYCLE",
	CmdGetDutyCycle:     "GET_DT_CYCLE",
	CmdSetPwmSetting:    "SET_PWM_SETTING",
	CmdShowPwmSettings:  "SHOW_PWM_SETTINGS",
	CmdResetPwmSettings: "RESET_PWM_SETTINGS",
}

var commandIDs = func() map[string]CommandID {
	m := make(map[string]CommandID, len(commandNames))
	for id, name := range commandNames {
		m[name] = id
	}
	return m
}()

func (c CommandID) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// LookupCommand maps a wire name to its id. Matching is exact and case-sensitive.
func LookupCommand(name string) CommandID {
	return commandIDs[name]
}

// Setting names one of the PWM settings SET_PWM_SETTING accepts.
type Setting int

const (
	SettingUnknown Setting = iota
	SettingFrequency
	SettingChannel
	SettingResolution
	SettingPin
)

var settingNames = map[Setting]string{
	SettingFrequency:  "FREQUENCY",
	SettingChannel:    "CHANNEL",
	SettingResolution: "RESOLUTION",
	SettingPin:        "PIN",
}

func (s Setting) String() string {
	if name, ok := settingNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// LookupSetting maps a wire name to a Setting, SettingUnknown if none matches.
func LookupSetting(name string) Setting {
	for s, n := range settingNames {
		if n == name {
			return s
		}
	}
	return SettingUnknown
}

// FormatRequest renders a request line: NAME|arg|arg followed by a newline.
func FormatRequest(cmd CommandID, args ...string) []byte {
	var b strings.Builder
	b.WriteString(cmd.String())
	for _, a := range args {
		b.WriteByte(ArgSeparator)
		b.WriteString(a)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
