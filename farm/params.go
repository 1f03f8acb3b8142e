package farm

import (
	"furitingoasis/greenhouse/param"
	"furitingoasis/greenhouse/sensors"
)

// setpoint binds a float field of the processor.
func setpoint(field func(*Processor) *float32, r param.Range[float32]) param.Numeric[*Processor, float32] {
	return param.Numeric[*Processor, float32]{
		Access: func(p *Processor, v *float32) float32 {
			f := field(p)
			if v != nil {
				*f = *v
			}
			return *f
		},
		Range: r,
	}
}

func byte8(field func(*Processor) *uint8, r param.Range[uint8]) param.Numeric[*Processor, uint8] {
	return param.Numeric[*Processor, uint8]{
		Access: func(p *Processor, v *uint8) uint8 {
			f := field(p)
			if v != nil {
				*f = *v
			}
			return *f
		},
		Range: r,
	}
}

func word16(field func(*Processor) *uint16, r param.Range[uint16]) param.Numeric[*Processor, uint16] {
	return param.Numeric[*Processor, uint16]{
		Access: func(p *Processor, v *uint16) uint16 {
			f := field(p)
			if v != nil {
				*f = *v
			}
			return *f
		},
		Range: r,
	}
}

var (
	tempSetpointDesc = setpoint(func(p *Processor) *float32 { return &p.tempSetpoint },
		param.Range[float32]{Min: -10, Max: 50, Step: 0.5, Unit: "C"})

	tempHysDesc = setpoint(func(p *Processor) *float32 { return &p.tempHys },
		param.Range[float32]{Min: 0, Max: 20, Step: 0.5, Unit: "C"})

	humSetpointDesc = setpoint(func(p *Processor) *float32 { return &p.humSetpoint },
		param.Range[float32]{Min: 0, Max: 100, Step: 1, Unit: "%"})

	humHysDesc = setpoint(func(p *Processor) *float32 { return &p.humHys },
		param.Range[float32]{Min: 0, Max: 50, Step: 1, Unit: "%"})

	pumpCountDesc = param.Numeric[*Processor, uint8]{
		Access: func(p *Processor, v *uint8) uint8 {
			if v != nil {
				p.pumpCount = *v
				p.checkSoil()
			}
			return p.pumpCount
		},
		Range: param.Range[uint8]{Min: 1, Max: soilSensors, Step: 1},
	}

	pumpSetpointDesc = param.Choice[*Processor]{
		Access: func(p *Processor, v *int) int {
			if v != nil {
				p.pumpSetpoint = *v
				p.checkSoil()
			}
			return p.pumpSetpoint
		},
		Labels: sensors.MoistureLabels(),
	}

	pumpRunDesc = byte8(func(p *Processor) *uint8 { return &p.pumpRun },
		param.Range[uint8]{Min: 1, Max: 255, Step: 1, Unit: "s"})

	pumpIntervalDesc = byte8(func(p *Processor) *uint8 { return &p.pumpInterval },
		param.Range[uint8]{Min: 0, Max: 255, Step: 1, Unit: "s"})

	lightThresholdDesc = byte8(func(p *Processor) *uint8 { return &p.lightThreshold },
		param.Range[uint8]{Min: 0, Max: 100, Step: 1, Unit: "%"})

	lightHysDesc = byte8(func(p *Processor) *uint8 { return &p.lightHys },
		param.Range[uint8]{Min: 0, Max: 50, Step: 1, Unit: "%"})

	ledRunDesc = word16(func(p *Processor) *uint16 { return &p.ledRun },
		param.Range[uint16]{Min: 5, Max: 1440, Step: 5, Unit: "min"})

	ledIntervalDesc = word16(func(p *Processor) *uint16 { return &p.ledInterval },
		param.Range[uint16]{Min: 0, Max: 1440, Step: 5, Unit: "min"})
)

func (p *Processor) TempSetpointParam() param.NumericParam[float32] { return tempSetpointDesc.Bind(p) }

func (p *Processor) TempHysParam() param.NumericParam[float32] { return tempHysDesc.Bind(p) }

func (p *Processor) HumSetpointParam() param.NumericParam[float32] { return humSetpointDesc.Bind(p) }

func (p *Processor) HumHysParam() param.NumericParam[float32] { return humHysDesc.Bind(p) }

// PumpCountParam is how many soil sensors must agree before watering.
func (p *Processor) PumpCountParam() param.NumericParam[uint8] { return pumpCountDesc.Bind(p) }

// PumpSetpointParam is the dryness at which a sensor votes for watering.
func (p *Processor) PumpSetpointParam() param.EnumParam { return pumpSetpointDesc.Bind(p) }

func (p *Processor) PumpRunParam() param.NumericParam[uint8] { return pumpRunDesc.Bind(p) }

func (p *Processor) PumpIntervalParam() param.NumericParam[uint8] { return pumpIntervalDesc.Bind(p) }

func (p *Processor) LightThresholdParam() param.NumericParam[uint8] { return lightThresholdDesc.Bind(p) }

func (p *Processor) LightHysParam() param.NumericParam[uint8] { return lightHysDesc.Bind(p) }

// LedRunParam and LedIntervalParam are in minutes.
func (p *Processor) LedRunParam() param.NumericParam[uint16] { return ledRunDesc.Bind(p) }

func (p *Processor) LedIntervalParam() param.NumericParam[uint16] { return ledIntervalDesc.Bind(p) }
