// Package obd decodes OBD2 mode 01 responses into telemetry readings.
// All decoded values are metric; unit conversion is a display concern.
package obd

// Mode 01 parameter IDs polled by the agent.
const (
	PIDEngineLoad     = 0x04
	PIDCoolantTemp    = 0x05
	PIDFuelPressure   = 0x0A
	PIDManifoldPress  = 0x0B
	PIDEngineRPM      = 0x0C
	PIDVehicleSpeed   = 0x0D
	PIDIntakeTemp     = 0x0F
	PIDThrottlePos    = 0x11
	PIDBaroPressure   = 0x33
	PIDControlVoltage = 0x42
	PIDAmbientTemp    = 0x46
	PIDOdometer       = 0xA6
)

// Parameter describes one supported PID: its wire decoding and the key/unit
// it is reported under.
type Parameter struct {
	PID    byte
	Key    string
	Unit   string
	Length int
	Decode func(data []byte) float64
}

// Parameters is the fixed table of PIDs the agent understands.
var Parameters = map[byte]Parameter{
	PIDEngineLoad: {
		PID: PIDEngineLoad, Key: "04-EngineLoad", Unit: "%", Length: 1,
		Decode: func(d []byte) float64 { return float64(d[0]) * 100 / 255 },
	},
	PIDCoolantTemp: {
		PID: PIDCoolantTemp, Key: "05-EngineCoolantTemp", Unit: "°C", Length: 1,
		Decode: func(d []byte) float64 { return float64(int(d[0]) - 40) },
	},
	PIDFuelPressure: {
		PID: PIDFuelPressure, Key: "0A-FuelPressure", Unit: "kPa", Length: 1,
		Decode: func(d []byte) float64 { return float64(d[0]) * 3 },
	},
	PIDManifoldPress: {
		PID: PIDManifoldPress, Key: "0B-ManifoldAbsolutePressure", Unit: "kPa", Length: 1,
		Decode: func(d []byte) float64 { return float64(d[0]) },
	},
	PIDEngineRPM: {
		PID: PIDEngineRPM, Key: "0C-EngineRPM", Unit: "", Length: 2,
		Decode: func(d []byte) float64 { return float64(int(d[0])*256+int(d[1])) / 4 },
	},
	PIDVehicleSpeed: {
		PID: PIDVehicleSpeed, Key: "0D-VehicleSpeed", Unit: "km/h", Length: 1,
		Decode: func(d []byte) float64 { return float64(d[0]) },
	},
	PIDIntakeTemp: {
		PID: PIDIntakeTemp, Key: "0F-IntakeAirTemp", Unit: "°C", Length: 1,
		Decode: func(d []byte) float64 { return float64(int(d[0]) - 40) },
	},
	PIDThrottlePos: {
		PID: PIDThrottlePos, Key: "11-ThrottlePosition", Unit: "%", Length: 1,
		Decode: func(d []byte) float64 { return float64(d[0]) * 100 / 255 },
	},
	PIDBaroPressure: {
		PID: PIDBaroPressure, Key: "33-BarometricPressure", Unit: "kPa", Length: 1,
		Decode: func(d []byte) float64 { return float64(d[0]) },
	},
	PIDControlVoltage: {
		PID: PIDControlVoltage, Key: "42-ControlModuleVoltage", Unit: "", Length: 2,
		Decode: func(d []byte) float64 { return float64(int(d[0])*256+int(d[1])) / 1000 },
	},
	PIDAmbientTemp: {
		PID: PIDAmbientTemp, Key: "46-AmbientAirTemp", Unit: "°C", Length: 1,
		Decode: func(d []byte) float64 { return float64(int(d[0]) - 40) },
	},
	PIDOdometer: {
		PID: PIDOdometer, Key: "A6-Odometer", Unit: "km", Length: 4,
		Decode: func(d []byte) float64 {
			raw := uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])
			return float64(raw) / 10
		},
	},
}

// DefaultPollSet is the PID rotation the agent polls when the config does not
// override it.
var DefaultPollSet = []byte{
	PIDEngineRPM,
	PIDVehicleSpeed,
	PIDCoolantTemp,
	PIDIntakeTemp,
	PIDEngineLoad,
	PIDThrottlePos,
	PIDManifoldPress,
	PIDControlVoltage,
}
