package mood

// neutralTarget stands in for a feature the profile leaves unconstrained.
const neutralTarget = 0.5

// Vibe returns a short description of a profile from its energy/valence
// quadrant:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// A profile whose acousticness range is centered above 0.6 gets an
// "(Acoustic)" suffix.
func (p Profile) Vibe() string {
	t := p.Targets()
	energy := valueOr(t.Energy, neutralTarget)
	valence := valueOr(t.Valence, neutralTarget)

	highEnergy := energy > 0.6
	highValence := valence > 0.5

	var name string
	switch {
	case highEnergy && highValence:
		name = "Upbeat Party"
	case highEnergy && !highValence:
		name = "Intense & Dark"
	case !highEnergy && highValence:
		name = "Chill & Happy"
	default:
		name = "Reflective & Melancholy"
	}

	if p.Acousticness != nil && p.Acousticness.Midpoint() > 0.6 {
		return name + " (Acoustic)"
	}
	return name
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
