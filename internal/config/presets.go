package config

import "sort"

func preset(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

var Presets = map[string]*Config{
	"pair": preset(func(c *Config) {
		c.Steps = 300
		c.Random.Count = 0
		c.Bodies = []BodyConfig{
			{Position: []float64{-150, 0, 0}, Scale: 0.5, Polarity: "positive"},
			{Position: []float64{150, 0, 0}, Scale: 0.5, Polarity: "negative"},
		}
	}),
	"repel": preset(func(c *Config) {
		c.Steps = 300
		c.Random.Count = 0
		c.Bodies = []BodyConfig{
			{Position: []float64{-60, 0, 0}, Scale: 0.5, Strength: 8},
			{Position: []float64{60, 0, 0}, Scale: 0.5, Strength: 8},
		}
	}),
	"swarm": preset(func(c *Config) {
		c.Random = RandomConfig{Count: 40, Scale: 0.4}
	}),
	"cluster": preset(func(c *Config) {
		c.Steps = 900
		c.Bounds = BoundsConfig{Size: 400}
		c.Random = RandomConfig{Count: 150, Scale: 0.2}
	}),
	"gas": preset(func(c *Config) {
		c.Physics.ForceConstant = 0
		c.Physics.Drag = 1
		c.Physics.Restitution = 1
		c.Random = RandomConfig{Count: 60, Scale: 0.3, Speed: 400}
	}),
	"slab": preset(func(c *Config) {
		c.Bounds = BoundsConfig{
			Lower: []float64{-800, -800, -60},
			Upper: []float64{800, 800, 60},
		}
		c.Random = RandomConfig{Count: 30, Scale: 0.5}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
