package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkstep/corexy/kinematics"
	"github.com/inkstep/corexy/pen"
)

var (
	flagModel         string
	flagPort          string
	flagConfigFile    string
	flagSpeedPenDown  float64
	flagSpeedPenUp    float64
	flagAccel         float64
	flagConstSpeed    bool
	flagPenUpHeight   int
	flagPenDownHeight int
	flagCopies        int
	flagPageDelay     float64
	flagResolution    string
	flagMode          string
)

// BindFlags registers the corexyplot command's flags onto package-level
// vars, one Flags().XVar call per Options field. Grounded on
// motor-control-lab's cmd/mcl "sim step" command
// (other_examples/...cmd_sim_step.go.go), which registers its whole
// parameter set this way rather than through a generated struct.
func BindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagModel, "model", "MiniKit/2", "controller/hardware model identifier")
	cmd.Flags().StringVar(&flagPort, "port", "", "serial port device path")
	cmd.Flags().StringVar(&flagConfigFile, "config", "", "path to a YAML options file, layered under the flags below")
	cmd.Flags().Float64Var(&flagSpeedPenDown, "speed-pendown", 8.0, "pen-down travel speed (in/s)")
	cmd.Flags().Float64Var(&flagSpeedPenUp, "speed-penup", 12.0, "pen-up travel speed (in/s)")
	cmd.Flags().Float64Var(&flagAccel, "accel", 75, "acceleration, percent of max, (0,100]")
	cmd.Flags().BoolVar(&flagConstSpeed, "const-speed", false, "move pen-down segments at a constant speed, skipping acceleration planning")
	cmd.Flags().IntVar(&flagPenUpHeight, "pen-up-height", 60, "pen-up servo height, 0-100")
	cmd.Flags().IntVar(&flagPenDownHeight, "pen-down-height", 30, "pen-down servo height, 0-100")
	cmd.Flags().IntVar(&flagCopies, "copies", 1, "number of copies to plot; 0 means continuous, paced by --page-delay")
	cmd.Flags().Float64Var(&flagPageDelay, "page-delay", 15, "seconds to pause between copies")
	cmd.Flags().StringVar(&flagResolution, "resolution", "high", `microstepping resolution: "low" (8x) or "high" (16x)`)
	cmd.Flags().StringVar(&flagMode, "mode", "plot", "operation: plot, res_plot, res_home, align, toggle, cycle, manual")
}

// FromFlags builds a validated Options from the flags BindFlags
// registered. If --config names a file, it is loaded first via viper
// and used as the base; the explicit flags above always take
// precedence over it, since cobra leaves unset flags at their
// registered defaults rather than zero values. It also returns the
// serial port device path, which Options itself has no field for.
func FromFlags() (Options, string, error) {
	opts := Default()

	if flagConfigFile != "" {
		fileOpts, err := fromYamlFile(flagConfigFile)
		if err != nil {
			return Options{}, "", fmt.Errorf("loading %s: %w", flagConfigFile, err)
		}
		opts = fileOpts
	}

	opts.Model = flagModel
	opts.SpeedPenDown = flagSpeedPenDown
	opts.SpeedPenUp = flagSpeedPenUp
	opts.Accel = flagAccel
	opts.ConstSpeed = flagConstSpeed
	opts.PenUpHeight = pen.Height(flagPenUpHeight)
	opts.PenDownHeight = pen.Height(flagPenDownHeight)
	opts.Copies = flagCopies
	opts.PageDelay = flagPageDelay
	opts.Mode = flagMode
	switch flagResolution {
	case "low":
		opts.Resolution = kinematics.LowRes
	default:
		opts.Resolution = kinematics.HighRes
	}

	if err := opts.Validate(); err != nil {
		return Options{}, "", err
	}
	return opts, flagPort, nil
}

// fromYamlFile loads a YAML options document via a fresh *viper.Viper,
// matching niceyeti-tabular/tabular/reinforcement/learning.go's
// FromYaml: a new instance per call rather than viper's package-level
// singleton, since the core may load more than one options file across
// its lifetime (e.g. a CI harness exercising several machine profiles).
func fromYamlFile(path string) (Options, error) {
	opts := Default()
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return Options{}, err
	}
	if err := vp.Unmarshal(&opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
