package domain

import "fmt"

// Region is a platform routing domain of the upstream API. Every player and
// match belongs to exactly one region; the pipeline shards all scrape state
// by it.
type Region string

const (
	RegionNA1  Region = "na1"
	RegionBR1  Region = "br1"
	RegionLA1  Region = "la1"
	RegionLA2  Region = "la2"
	RegionOC1  Region = "oc1"
	RegionEUW1 Region = "euw1"
	RegionEUN1 Region = "eun1"
	RegionTR1  Region = "tr1"
	RegionRU   Region = "ru"
	RegionKR   Region = "kr"
	RegionJP1  Region = "jp1"
	RegionSG2  Region = "sg2"
	RegionTW2  Region = "tw2"
	RegionVN2  Region = "vn2"
)

var allRegions = []Region{
	RegionNA1, RegionBR1, RegionLA1, RegionLA2, RegionOC1,
	RegionEUW1, RegionEUN1, RegionTR1, RegionRU,
	RegionKR, RegionJP1,
	RegionSG2, RegionTW2, RegionVN2,
}

// AllRegions returns every region the upstream API serves.
func AllRegions() []Region {
	out := make([]Region, len(allRegions))
	copy(out, allRegions)
	return out
}

// ParseRegion validates a platform code coming from config or a request body.
func ParseRegion(s string) (Region, error) {
	for _, r := range allRegions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// Routing returns the continental routing value that hosts match data for
// this region. Upstream quotas are enforced per routing domain.
func (r Region) Routing() string {
	switch r {
	case RegionNA1, RegionBR1, RegionLA1, RegionLA2, RegionOC1:
		return "americas"
	case RegionEUW1, RegionEUN1, RegionTR1, RegionRU:
		return "europe"
	case RegionKR, RegionJP1:
		return "asia"
	default:
		return "sea"
	}
}
