package firmware

import (
	"github.com/golang/glog"

	"xeon-pwm/internal/protocol"
	"xeon-pwm/internal/settings"
)

// handler runs one command, reading its arguments from f.parser and writing any
// informational lines to f.out.
type handler func(f *Firmware) protocol.Result

func commandTable() map[protocol.CommandID]handler {
	return map[protocol.CommandID]handler{
		protocol.CmdRestart:          handleRestart,
		protocol.CmdSetDutyCycle:     handleSetDutyCycle,
		protocol.CmdGetDutyCycle:     handleGetDutyCycle,
		protocol.CmdSetPwmSetting:    handleSetPwmSetting,
		protocol.CmdShowPwmSettings:  handleShowPwmSettings,
		protocol.CmdResetPwmSettings: handleResetPwmSettings,
	}
}

func handleSetDutyCycle(f *Firmware) protocol.Result {
	v := f.parser.Int()
	f.debugf("Read duty_cycle: %d", v)
	f.state.DutyCycle = clampDuty(v, f.state.ResolutionBits)
	f.debugf("Current duty_cycle: %d", f.state.DutyCycle)
	return protocol.ErrSuccess
}

func handleGetDutyCycle(f *Firmware) protocol.Result {
	f.out.Uint(f.state.DutyCycle)
	return protocol.ErrSuccess
}

// handleSetPwmSetting persists FREQUENCY and CHANNEL for the next start.
// RESOLUTION also takes effect at once. PIN is refused: rebinding the output
// pin of a running fan can leave the device unreachable.
func handleSetPwmSetting(f *Firmware) protocol.Result {
	name := f.parser.Arg()
	if name == "" {
		return protocol.ErrPwmInvalidSetting
	}
	value := toUint32(f.parser.Int())

	switch protocol.LookupSetting(name) {
	case protocol.SettingFrequency:
		f.persist(f.store.SetFrequency(value))
	case protocol.SettingChannel:
		f.persist(f.store.SetChannel(value))
	case protocol.SettingResolution:
		bits := settings.ClampResolution(value)
		f.persist(f.store.SetResolution(bits))
		f.state.ResolutionBits = bits
		f.state.DutyCycle = clampDuty(int64(f.state.DutyCycle), bits)
	case protocol.SettingPin:
		return protocol.ErrPwmDisabled
	default:
		return protocol.ErrPwmInvalidSetting
	}
	f.debugf("Set %s: %d", name, value)
	return protocol.ErrSuccess
}

func handleShowPwmSettings(f *Firmware) protocol.Result {
	report := f.store.Load().Report()
	if f.parser.Arg() == protocol.PrettyArg {
		for _, line := range report.PrettyLines() {
			f.out.Line(line)
		}
		return protocol.ErrSuccess
	}
	f.out.Line(report.Line())
	return protocol.ErrSuccess
}

func handleResetPwmSettings(f *Firmware) protocol.Result {
	f.persist(f.store.Reset())
	return protocol.ErrSuccess
}

func handleRestart(f *Firmware) protocol.Result {
	glog.Infof("firmware: restart requested")
	if err := f.Close(); err != nil {
		glog.Warningf("firmware: release before restart: %v", err)
	}
	if f.cfg.Restart == nil {
		glog.Warningf("firmware: no restart hook configured")
		return protocol.ErrSuccess
	}
	glog.Flush()
	if err := f.cfg.Restart(); err != nil {
		glog.Errorf("firmware: restart: %v", err)
	}
	return protocol.ErrSuccess
}
