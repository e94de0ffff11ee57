package params

const (
	defaultMu        = 0.9
	DefaultNominalDt = 0.01
	DefaultMaxDt     = 0.01
	DefaultBattery   = 1.8e8 // ~50 kWh
)

// defaultTire is the reference tire coefficient set shared by all built-in
// vehicles.
func defaultTire() Tire {
	return Tire{
		PCx1: 1.6411,
		PDx1: 1.1739,
		PDx3: 0,
		PEx1: 0.46403,
		PKx1: 22.303,
		PHx1: 0.0012297,
		PVx1: -8.8098e-06,
		RBx1: 13.276,
		RBx2: -13.778,
		RCx1: 1.2568,
		REx1: 0.65225,
		RHx1: 0.0050722,

		PCy1: 1.3507,
		PDy1: 1.0489,
		PDy3: -2.8821,
		PEy1: -0.0074722,
		PKy1: -21.92,
		PHy1: 0.0026747,
		PHy3: 0.031415,
		PVy1: 0.037318,
		PVy3: -0.32931,
		RBy1: 7.1433,
		RBy2: 9.1916,
		RBy3: -0.027856,
		RCy1: 1.0719,
		REy1: -0.27572,
		RHy1: 5.7448e-06,
		RVy1: -0.027825,
		RVy3: -0.27568,
		RVy4: 12.12,
		RVy5: 1.9,
		RVy6: -10.704,
	}
}

// Vehicle1 is a compact car (Ford Escort class).
func Vehicle1() *Vehicle {
	return &Vehicle{
		Name:            "compact",
		Length:          4.298,
		Width:           1.674,
		Mass:            1089.380961,
		YawInertia:      1199.01837,
		LF:              1.0036585,
		LR:              1.5625415,
		HCg:             0.5751993,
		WheelRadius:     0.344,
		WheelInertia:    1.7,
		BrakeSplit:      0.76,
		EngineSplit:     1.0,
		Mu:              defaultMu,
		BatteryCapacity: DefaultBattery,
		Steering: Steering{
			Min: -0.910, Max: 0.910,
			RateMin: -0.4, RateMax: 0.4,
		},
		Longitudinal: Longitudinal{
			VMin: -11.2, VMax: 45.8,
			VSwitch: 7.824,
			AMax:    11.5, AMin: -11.5,
		},
		Tire: defaultTire(),
	}
}

// Vehicle2 is a mid-size sedan (BMW 320i class).
func Vehicle2() *Vehicle {
	return &Vehicle{
		Name:            "sedan",
		Length:          4.508,
		Width:           1.610,
		Mass:            1225.887,
		YawInertia:      1538.853371,
		LF:              1.1561957064,
		LR:              1.4227170936,
		HCg:             0.6137,
		WheelRadius:     0.344,
		WheelInertia:    1.7,
		BrakeSplit:      0.76,
		EngineSplit:     1.0,
		Mu:              defaultMu,
		BatteryCapacity: DefaultBattery,
		Steering: Steering{
			Min: -1.066, Max: 1.066,
			RateMin: -0.4, RateMax: 0.4,
		},
		Longitudinal: Longitudinal{
			VMin: -13.6, VMax: 50.8,
			VSwitch: 7.319,
			AMax:    11.5, AMin: -11.5,
		},
		Tire: defaultTire(),
	}
}

// Vehicle3 is a van (VW Vanagon class).
func Vehicle3() *Vehicle {
	return &Vehicle{
		Name:            "van",
		Length:          4.569,
		Width:           1.844,
		Mass:            1478.465,
		YawInertia:      1920.0,
		LF:              1.38385,
		LR:              1.50876,
		HCg:             0.9,
		WheelRadius:     0.344,
		WheelInertia:    1.7,
		BrakeSplit:      0.76,
		EngineSplit:     1.0,
		Mu:              defaultMu,
		BatteryCapacity: DefaultBattery,
		Steering: Steering{
			Min: -1.023, Max: 1.023,
			RateMin: -0.4, RateMax: 0.4,
		},
		Longitudinal: Longitudinal{
			VMin: -11.2, VMax: 41.7,
			VSwitch: 7.46,
			AMax:    11.5, AMin: -11.5,
		},
		Tire: defaultTire(),
	}
}

// DefaultSafety mirrors the playground's shipped latch tuning.
func DefaultSafety() SafetyConfig {
	return SafetyConfig{
		Normal: SafetyProfile{
			EngageSpeed:    0.4,
			ReleaseSpeed:   0.8,
			YawRateLimit:   2.0,
			SlipAngleLimit: 0.35,
		},
		Drift: SafetyProfile{
			EngageSpeed:    0.4,
			ReleaseSpeed:   0.8,
			YawRateLimit:   6.0,
			SlipAngleLimit: 1.2,
		},
		StopSpeedEpsilon: 0.05,
	}
}

// DefaultDetector mirrors the shipped loss-of-control thresholds.
func DefaultDetector() DetectorConfig {
	return DetectorConfig{
		YawRateThreshold:   1.5,
		YawRateRate:        4.0,
		SlipAngleThreshold: 0.25,
		SlipAngleRate:      1.0,
		LatAccelThreshold:  8.0,
		LatAccelRate:       25.0,
		WheelSlipThreshold: 0.2,
		WheelSlipRate:      2.0,
	}
}

// DefaultBundle is the fallback configuration used when no file can be
// loaded. It must always validate.
func DefaultBundle() *Bundle {
	return &Bundle{
		Vehicles: map[int]*Vehicle{
			1: Vehicle1(),
			2: Vehicle2(),
			3: Vehicle3(),
		},
		Safety:   DefaultSafety(),
		Detector: DefaultDetector(),
		Timing: Timing{
			NominalDt: DefaultNominalDt,
			MaxDt:     DefaultMaxDt,
		},
	}
}
