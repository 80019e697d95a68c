package vidstab

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/tracker"
	"github.com/swdee/go-vidstab/trajectory"
	"github.com/swdee/go-vidstab/video"
)

// Mode selects the kind of stabilization performed
type Mode string

const (
	// ModeStabilize smooths the whole camera trajectory in two passes
	ModeStabilize Mode = "stabilize"
	// ModeTrack locks onto a subject in a single pass
	ModeTrack Mode = "track"
)

// Strategy selects how inter-frame motion is observed
type Strategy string

const (
	// StrategyFlow tracks corner features with optical flow
	StrategyFlow Strategy = "flow"
	// StrategyMatch matches ORB descriptors between frames
	StrategyMatch Strategy = "match"
)

// Enhance selects the post warp enhancement chain
type Enhance string

const (
	EnhanceNone       Enhance = "none"
	EnhanceCLAHE      Enhance = "clahe"
	EnhanceGamma      Enhance = "gamma"
	EnhanceCLAHEGamma Enhance = "clahe+gamma"
)

// Preset names
const (
	PresetLight      = "light"
	PresetSmart      = "smart"
	PresetGimbal     = "gimbal"
	PresetObjectLock = "objectlock"
)

// maxConfigSize is the largest params file LoadParams accepts
const maxConfigSize = 1 * 1024 * 1024

// Params are the tunables of a stabilization run
type Params struct {
	// Preset names the preset a params file is layered over, only used by
	// LoadParams
	Preset string `json:"preset,omitempty"`
	Mode   Mode   `json:"mode"`

	// motion observation
	Strategy           Strategy `json:"strategy"`
	MaxFeatures        int      `json:"max_features"`
	QualityLevel       float64  `json:"quality_level"`
	MinDistance        float64  `json:"min_distance"`
	MinCorrespondences int      `json:"min_correspondences"`
	InlierThreshold    float64  `json:"inlier_threshold"`

	// trajectory smoothing
	Radius       int               `json:"radius"`
	Kernel       trajectory.Kernel `json:"kernel"`
	SigmaDivisor float64           `json:"sigma_divisor"`

	// compensation
	Zoom float64 `json:"zoom"`

	// object-lock
	ReseedMinPoints int     `json:"reseed_min_points"`
	ReseedEvery     int     `json:"reseed_every"`
	ROIFraction     float64 `json:"roi_fraction"`
	TrackFeatures   int     `json:"track_features"`

	// enhancement
	Enhance   Enhance `json:"enhance"`
	ClipLimit float64 `json:"clip_limit"`
	TileGrid  int     `json:"tile_grid"`

	// output
	Codecs []string `json:"codecs"`
	// CoverageWarn logs a warning when a corrected frame covers less than
	// this share of the output, 0 disables the check
	CoverageWarn float64 `json:"coverage_warn"`
	// KeepTrajectory returns the raw and smoothed paths in the Result
	KeepTrajectory bool `json:"keep_trajectory"`
}

// DefaultParams returns the light preset
func DefaultParams() Params {
	return Params{
		Mode:               ModeStabilize,
		Strategy:           StrategyFlow,
		MaxFeatures:        200,
		QualityLevel:       0.01,
		MinDistance:        30,
		MinCorrespondences: 5,
		InlierThreshold:    3,
		Radius:             30,
		Kernel:             trajectory.KernelUniform,
		SigmaDivisor:       trajectory.DefaultSigmaDivisor,
		Zoom:               1.05,
		ReseedMinPoints:    20,
		ReseedEvery:        30,
		ROIFraction:        0.5,
		TrackFeatures:      100,
		Enhance:            EnhanceNone,
		ClipLimit:          2.0,
		TileGrid:           8,
		Codecs:             append([]string(nil), video.DefaultCodecs...),
		CoverageWarn:       0.8,
	}
}

// presets maps a preset name to the changes it makes to DefaultParams
var presets = map[string]func(p *Params){
	PresetLight: func(p *Params) {},
	PresetSmart: func(p *Params) {
		p.Enhance = EnhanceCLAHEGamma
	},
	PresetGimbal: func(p *Params) {
		p.Strategy = StrategyMatch
		p.MaxFeatures = 3000
		p.InlierThreshold = 5
		p.Radius = 60
		p.Kernel = trajectory.KernelGaussian
		p.Zoom = 1.35
	},
	PresetObjectLock: func(p *Params) {
		p.Mode = ModeTrack
		p.ReseedMinPoints = 20
		p.ReseedEvery = 30
		p.Zoom = 1.4
	},
}

// Presets returns the sorted names of the built in presets
func Presets() []string {

	names := make([]string, 0, len(presets))

	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Preset returns the params of the named preset
func Preset(name string) (Params, error) {

	apply, ok := presets[strings.ToLower(strings.TrimSpace(name))]

	if !ok {
		return Params{}, fmt.Errorf("unknown preset %q, expected one of %s",
			name, strings.Join(Presets(), "|"))
	}

	p := DefaultParams()
	apply(&p)

	return p, nil
}

// LoadParams loads Params from a JSON file.  The file is validated to have a
// .json extension and be under the max file size.  Fields omitted from the
// file keep the value of the preset named by its "preset" field, or of
// DefaultParams when none is named.
func LoadParams(path string) (Params, error) {

	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Params{}, fmt.Errorf("params file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)

	if err != nil {
		return Params{}, fmt.Errorf("failed to stat params file: %w", err)
	}

	if fileInfo.Size() > maxConfigSize {
		return Params{}, fmt.Errorf("params file too large: %d bytes (max %d)",
			fileInfo.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)

	if err != nil {
		return Params{}, fmt.Errorf("failed to read params file: %w", err)
	}

	// peek at the preset the file builds on
	var base struct {
		Preset string `json:"preset"`
	}

	if err := json.Unmarshal(data, &base); err != nil {
		return Params{}, fmt.Errorf("failed to parse params JSON: %w", err)
	}

	p := DefaultParams()

	if base.Preset != "" {
		if p, err = Preset(base.Preset); err != nil {
			return Params{}, err
		}
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("failed to parse params JSON: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid params: %w", err)
	}

	return p, nil
}

// Validate checks that the params are usable
func (p Params) Validate() error {

	switch p.Mode {
	case ModeStabilize, ModeTrack:
	default:
		return fmt.Errorf("mode must be %s or %s, got %q", ModeStabilize, ModeTrack, p.Mode)
	}

	switch p.Strategy {
	case StrategyFlow, StrategyMatch:
	default:
		return fmt.Errorf("strategy must be %s or %s, got %q", StrategyFlow, StrategyMatch, p.Strategy)
	}

	switch p.Enhance {
	case "", EnhanceNone, EnhanceCLAHE, EnhanceGamma, EnhanceCLAHEGamma:
	default:
		return fmt.Errorf("unknown enhance %q", p.Enhance)
	}

	if p.Kernel != trajectory.KernelUniform && p.Kernel != trajectory.KernelGaussian {
		return fmt.Errorf("unknown kernel %d", int(p.Kernel))
	}

	if p.MaxFeatures <= 0 {
		return fmt.Errorf("max_features must be positive, got %d", p.MaxFeatures)
	}

	if p.QualityLevel <= 0 || p.QualityLevel >= 1 {
		return fmt.Errorf("quality_level must be between 0 and 1, got %f", p.QualityLevel)
	}

	if p.MinDistance < 0 {
		return fmt.Errorf("min_distance must not be negative, got %f", p.MinDistance)
	}

	if p.MinCorrespondences < 2 {
		return fmt.Errorf("min_correspondences must be at least 2, got %d", p.MinCorrespondences)
	}

	if p.InlierThreshold <= 0 {
		return fmt.Errorf("inlier_threshold must be positive, got %f", p.InlierThreshold)
	}

	if p.Radius < 0 {
		return fmt.Errorf("radius must not be negative, got %d", p.Radius)
	}

	if p.Kernel == trajectory.KernelGaussian && p.SigmaDivisor <= 0 {
		return fmt.Errorf("sigma_divisor must be positive, got %f", p.SigmaDivisor)
	}

	if p.Zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %f", p.Zoom)
	}

	if p.ReseedMinPoints < 0 || p.ReseedEvery < 0 {
		return fmt.Errorf("reseed_min_points and reseed_every must not be negative")
	}

	if p.ROIFraction <= 0 || p.ROIFraction > 1 {
		return fmt.Errorf("roi_fraction must be in (0, 1], got %f", p.ROIFraction)
	}

	if p.Mode == ModeTrack && p.TrackFeatures <= 0 {
		return fmt.Errorf("track_features must be positive, got %d", p.TrackFeatures)
	}

	if p.usesCLAHE() && (p.ClipLimit <= 0 || p.TileGrid <= 0) {
		return fmt.Errorf("clip_limit and tile_grid must be positive for %s", p.Enhance)
	}

	if len(p.Codecs) == 0 {
		return fmt.Errorf("codecs must list at least one codec")
	}

	for _, c := range p.Codecs {
		if len(c) != 4 {
			return fmt.Errorf("codec %q is not a four character code", c)
		}
	}

	if p.CoverageWarn < 0 || p.CoverageWarn > 1 {
		return fmt.Errorf("coverage_warn must be between 0 and 1, got %f", p.CoverageWarn)
	}

	return nil
}

// usesCLAHE reports whether the enhancement chain includes CLAHE
func (p Params) usesCLAHE() bool {
	return p.Enhance == EnhanceCLAHE || p.Enhance == EnhanceCLAHEGamma
}

// usesGamma reports whether the enhancement chain includes auto gamma
func (p Params) usesGamma() bool {
	return p.Enhance == EnhanceGamma || p.Enhance == EnhanceCLAHEGamma
}

// ObserverConfig returns the motion observer thresholds
func (p Params) ObserverConfig() motion.Config {
	return motion.Config{
		MaxFeatures:        p.MaxFeatures,
		MinCorrespondences: p.MinCorrespondences,
		InlierThreshold:    p.InlierThreshold,
	}
}

// Smoother returns the trajectory smoother
func (p Params) Smoother() trajectory.Smoother {
	return trajectory.Smoother{
		Radius:       p.Radius,
		Kernel:       p.Kernel,
		SigmaDivisor: p.SigmaDivisor,
	}
}

// TrackerConfig returns the object-lock settings
func (p Params) TrackerConfig() tracker.Config {

	cfg := tracker.DefaultConfig()
	cfg.MaxFeatures = p.TrackFeatures
	cfg.ReseedMinPoints = p.ReseedMinPoints
	cfg.ReseedEvery = p.ReseedEvery
	cfg.ROIFraction = p.ROIFraction

	return cfg
}

// EnhancerNames returns the enhancers the chain is built from in order,
// eg: [clahe gamma]
func (p Params) EnhancerNames() []string {

	var names []string

	if p.usesCLAHE() {
		names = append(names, string(EnhanceCLAHE))
	}

	if p.usesGamma() {
		names = append(names, string(EnhanceGamma))
	}

	return names
}
