package domain

// Mission identifies the satellite altimeter mission an observation came
// from. Values index into MissionNames and match the ids used by the gridded
// altimeter preparation step.
type Mission int16

// MissionNone marks records with no satellite origin (buoy matchups).
const MissionNone Mission = -1

// MissionNames is the closed table of known altimeter missions. Order is
// significant: the position is the on-disk mission id.
var MissionNames = []string{
	"JASON3", "JASON2", "CRYOSAT2", "JASON1", "HY2", "SARAL", "SENTINEL3A",
	"ENVISAT", "ERS1", "ERS2", "GEOSAT", "GFO", "TOPEX", "SENTINEL3B",
}

func (m Mission) String() string {
	if m < 0 || int(m) >= len(MissionNames) {
		return ""
	}
	return MissionNames[m]
}

// MissionByName resolves a mission name from the closed table.
func MissionByName(name string) (Mission, bool) {
	for i, n := range MissionNames {
		if n == name {
			return Mission(i), true
		}
	}
	return MissionNone, false
}
