package feature

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// autoTransformThreshold is the matrix maximum beyond which raw intensity
// data is assumed untransformed and log scaling kicks in automatically.
const autoTransformThreshold = 1000

// TransformMode selects the log-transform policy for marker intensities.
type TransformMode int

const (
	// TransformAuto applies the log transform only when the matrix maximum
	// exceeds autoTransformThreshold (raw intensities, not yet scaled).
	TransformAuto TransformMode = iota
	// TransformOn always applies the log transform.
	TransformOn
	// TransformOff never applies the log transform.
	TransformOff
)

func (t TransformMode) String() string {
	switch t {
	case TransformAuto:
		return "auto"
	case TransformOn:
		return "true"
	case TransformOff:
		return "false"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseTransformMode parses the transform values accepted in config files.
func ParseTransformMode(s string) (TransformMode, error) {
	switch s {
	case "auto", "":
		return TransformAuto, nil
	case "true":
		return TransformOn, nil
	case "false":
		return TransformOff, nil
	default:
		return 0, fmt.Errorf("invalid transform value %q (want true, false or auto)", s)
	}
}

// transformConfig is the YAML config file shape: a single transform key.
type transformConfig struct {
	// YAML authors write both transform: true and transform: "auto",
	// so the value is normalized after decoding.
	Transform any `yaml:"transform"`
}

// LoadTransformConfig reads the transform policy from a YAML config file.
func LoadTransformConfig(path string) (TransformMode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading config file: %w", err)
	}
	var cfg transformConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("parsing config file: %w", err)
	}
	switch v := cfg.Transform.(type) {
	case nil:
		return TransformAuto, nil
	case bool:
		if v {
			return TransformOn, nil
		}
		return TransformOff, nil
	case string:
		return ParseTransformMode(v)
	default:
		return 0, fmt.Errorf("invalid transform value %v (want true, false or auto)", v)
	}
}

// ApplyTransform applies the log-transform policy to m in place and reports
// whether the matrix was transformed. Called once, before the matrix is
// handed to the clustering core.
func ApplyTransform(m *Matrix, mode TransformMode) bool {
	switch mode {
	case TransformOff:
		return false
	case TransformAuto:
		if m.Max() <= autoTransformThreshold {
			return false
		}
	}
	for i, v := range m.Data {
		m.Data[i] = float32(math.Log10(1 + float64(v)))
	}
	return true
}
