package template

// CameraProfile identifies a supported camera lens configuration. The
// focal length constants are user-facing documentation values and must
// stay stable across versions.
type CameraProfile string

// Supported camera profiles.
const (
	ProfileStandard CameraProfile = "standard"
	Profile6mm      CameraProfile = "6mm"
)

// DefaultProfile is used when no profile or focal length is given.
const DefaultProfile = ProfileStandard

// DefaultPlaneDistance is the default virtual plane distance in meters.
const DefaultPlaneDistance = 0.5

var profileFocalLengths = map[CameraProfile]float64{
	ProfileStandard: 1080,
	Profile6mm:      1600,
}

// Valid reports whether the profile is known.
func (p CameraProfile) Valid() bool {
	_, ok := profileFocalLengths[p]
	return ok
}

// FocalLengthPx returns the profile's virtual focal length in pixels.
// Unknown profiles fall back to the default profile.
func (p CameraProfile) FocalLengthPx() float64 {
	if f, ok := profileFocalLengths[p]; ok {
		return f
	}
	return profileFocalLengths[DefaultProfile]
}

// Profiles returns the known profile names.
func Profiles() []CameraProfile {
	return []CameraProfile{ProfileStandard, Profile6mm}
}
