package sim

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a deterministic, script-driven simulation description.
//
// Distances are millimetres, angles degrees, times Go duration strings.
//
// YAML schema (v1):
//
//	version: 1
//	track:
//	  kind: straight        # straight | arc
//	  length_mm: 600        # straight length, or lead-out after the arc
//	  radius_mm: 300        # arc only
//	  sweep_deg: 90         # arc only, <= 270
//	  lead_in_mm: 60
//	  line_width_mm: 19
//	  gaps:
//	    - at_mm: 150
//	      width_mm: 6
//	chassis:
//	  mm_per_s_per_cmd: 4.76
//	  dead_zone_mm_per_s: 33
//	  track_width_mm: 82
//	sensors:
//	  light: 200
//	  dark: 2000
//	  spacing_mm: 8
//	  lookahead_mm: 30
//	presses: [0s, 30s]
//
// Keep this struct stable: scripts are test fixtures.
type Script struct {
	Version int           `yaml:"version"`
	Track   TrackScript   `yaml:"track"`
	Chassis ChassisScript `yaml:"chassis"`
	Sensors SensorScript  `yaml:"sensors"`
	// Presses are run/stop button presses, as offsets from the start.
	Presses []time.Duration `yaml:"presses"`
}

type TrackScript struct {
	Kind        string  `yaml:"kind"`
	LengthMM    float64 `yaml:"length_mm"`
	RadiusMM    float64 `yaml:"radius_mm"`
	SweepDeg    float64 `yaml:"sweep_deg"`
	LeadInMM    float64 `yaml:"lead_in_mm"`
	LineWidthMM float64 `yaml:"line_width_mm"`
	Gaps        []Gap   `yaml:"gaps"`
}

// Gap is a break in the line, measured along the track from the start point.
type Gap struct {
	AtMM    float64 `yaml:"at_mm"`
	WidthMM float64 `yaml:"width_mm"`
}

// ChassisScript is the simulated drive train. Wheel speed is
// |cmd|*MMPerSecPerCmd - DeadZoneMMPerSec, floored at 0, sign reapplied.
type ChassisScript struct {
	MMPerSecPerCmd   float64 `yaml:"mm_per_s_per_cmd"`
	DeadZoneMMPerSec float64 `yaml:"dead_zone_mm_per_s"`
	TrackWidthMM     float64 `yaml:"track_width_mm"`
}

// SensorScript places five sensors on a bar ahead of the axle.
type SensorScript struct {
	Light       uint16  `yaml:"light"`
	Dark        uint16  `yaml:"dark"`
	SpacingMM   float64 `yaml:"spacing_mm"`
	LookaheadMM float64 `yaml:"lookahead_mm"`
}

// DefaultScript is a 600 mm straight line and a chassis matching the factory
// motor model.
func DefaultScript() Script {
	s := Script{}
	applyDefaults(&s)
	return s
}

// LoadScript reads and unmarshals a YAML script from path.
func LoadScript(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	return ParseScriptYAML(b)
}

// ParseScriptYAML parses a YAML script.
func ParseScriptYAML(b []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Script{}, err
	}
	return s, nil
}

func applyDefaults(s *Script) {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Track.Kind == "" {
		s.Track.Kind = "straight"
	}
	if s.Track.LengthMM == 0 && s.Track.Kind == "straight" {
		s.Track.LengthMM = 600
	}
	if s.Track.LeadInMM == 0 {
		s.Track.LeadInMM = 60
	}
	if s.Track.LineWidthMM == 0 {
		s.Track.LineWidthMM = 19
	}
	if s.Chassis.MMPerSecPerCmd == 0 {
		s.Chassis.MMPerSecPerCmd = 4.76
	}
	if s.Chassis.DeadZoneMMPerSec == 0 {
		s.Chassis.DeadZoneMMPerSec = 33
	}
	if s.Chassis.TrackWidthMM == 0 {
		s.Chassis.TrackWidthMM = 82
	}
	if s.Sensors.Light == 0 {
		s.Sensors.Light = 200
	}
	if s.Sensors.Dark == 0 {
		s.Sensors.Dark = 2000
	}
	if s.Sensors.SpacingMM == 0 {
		s.Sensors.SpacingMM = 8
	}
	if s.Sensors.LookaheadMM == 0 {
		s.Sensors.LookaheadMM = 30
	}
}

// Validate applies defaults and checks the script.
func (s *Script) Validate() error {
	applyDefaults(s)
	if s.Version != 1 {
		return fmt.Errorf("unsupported sim script version %d", s.Version)
	}
	switch s.Track.Kind {
	case "straight":
		if s.Track.LengthMM <= 0 {
			return fmt.Errorf("track.length_mm must be > 0")
		}
	case "arc":
		if s.Track.RadiusMM <= 0 {
			return fmt.Errorf("track.radius_mm must be > 0 for kind=arc")
		}
		if s.Track.SweepDeg <= 0 || s.Track.SweepDeg > 270 {
			return fmt.Errorf("track.sweep_deg must be in (0,270]")
		}
		if s.Track.LengthMM < 0 {
			return fmt.Errorf("track.length_mm must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported track.kind %q", s.Track.Kind)
	}
	if s.Track.LeadInMM < 0 {
		return fmt.Errorf("track.lead_in_mm must be >= 0")
	}
	for i, g := range s.Track.Gaps {
		if g.WidthMM <= 0 {
			return fmt.Errorf("track.gaps[%d].width_mm must be > 0", i)
		}
	}
	if s.Sensors.Dark <= s.Sensors.Light {
		return fmt.Errorf("sensors.dark must be > sensors.light")
	}
	if s.Chassis.TrackWidthMM <= 0 {
		return fmt.Errorf("chassis.track_width_mm must be > 0")
	}
	for i, p := range s.Presses {
		if p < 0 {
			return fmt.Errorf("presses[%d] must be >= 0", i)
		}
	}
	if !sort.SliceIsSorted(s.Presses, func(i, j int) bool { return s.Presses[i] < s.Presses[j] }) {
		return fmt.Errorf("presses must be sorted")
	}
	return nil
}
