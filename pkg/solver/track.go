package solver

// Track is the caller's per-frame playback state for one asset.
type Track struct {
	// Alpha is the normalized playback position, 0 at the first keyframe
	// and 1 at the last.
	Alpha float32
	// Priority decides which tracks drive a limb; higher wins outright.
	Priority int
	// StartFadeTime is the alpha at which fading in completes.
	StartFadeTime float32
	// StopFadeTime is the alpha at which fading out begins.
	StopFadeTime float32
	// Weight scales the track's influence within its priority.
	Weight float32
}

// EffectiveWeight returns Weight attenuated by the fade envelope at Alpha.
func (t Track) EffectiveWeight() float32 {
	if !(t.Weight > 0) {
		return 0
	}
	return t.Weight * FadeFactor(t.Alpha, t.StartFadeTime, t.StopFadeTime)
}

// FadeFactor returns the fade envelope in [0, 1] at alpha. It ramps up
// linearly over [0, startFade] and down linearly over [stopFade, 1].
// startFade == 0 disables the fade in; stopFade == 1 disables the fade out.
func FadeFactor(alpha, startFade, stopFade float32) float32 {
	in := float32(1)
	if startFade > 0 && alpha < startFade {
		in = clamp01(alpha / startFade)
	}

	out := float32(1)
	if stopFade < 1 && alpha > stopFade {
		out = clamp01((1 - alpha) / (1 - stopFade))
	}

	return in * out
}

func clamp01(x float32) float32 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
