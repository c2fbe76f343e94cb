package kb

import (
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
)

// AddPresets registers the Sun, Earth and Moon with their default
// environments, matching the bodies of core.PresetFrames.
func AddPresets(s *DescriptorStore) error {
	presets := []struct {
		def model.BodyDefinition
		env model.WorldEnvDescriptor
	}{
		{model.BodyDefinition{ID: core.SunID, Name: "Sun", Kind: model.BodyKindStar}, model.SunV0()},
		{model.BodyDefinition{ID: core.EarthID, Name: "Earth", Kind: model.BodyKindPlanet}, model.EarthV0()},
		{model.BodyDefinition{ID: core.MoonID, Name: "Moon", Kind: model.BodyKindMoon}, model.MoonV0()},
	}
	for _, p := range presets {
		def := p.def
		if err := s.AddBody(&def); err != nil {
			return err
		}
		if err := s.PutEnvironment(def.ID, p.env); err != nil {
			return err
		}
	}
	return nil
}
