package models

import "fmt"

// Segment identifies an exchange market segment in XTS API requests.
// The numeric codes are fixed by the exchange API contract.
type Segment int

const (
	SegmentNSECM Segment = 1
	SegmentNSEFO Segment = 2
	SegmentNSECD Segment = 3
	SegmentBSECM Segment = 11
	SegmentBSEFO Segment = 12
)

var segmentNames = map[Segment]string{
	SegmentNSECM: "NSECM",
	SegmentNSEFO: "NSEFO",
	SegmentNSECD: "NSECD",
	SegmentBSECM: "BSECM",
	SegmentBSEFO: "BSEFO",
}

// filePrefixes drive the master file naming expected by the terminal's
// loader, e.g. nse_cm_index_master.csv.
var filePrefixes = map[Segment]string{
	SegmentNSECM: "nse_cm",
	SegmentNSEFO: "nse_fo",
	SegmentNSECD: "nse_cd",
	SegmentBSECM: "bse_cm",
	SegmentBSEFO: "bse_fo",
}

func (s Segment) String() string {
	if name, ok := segmentNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Segment %d", int(s))
}

// Code returns the numeric segment identifier used on the wire.
func (s Segment) Code() int {
	return int(s)
}

// FilePrefix returns the output file prefix for this segment.
func (s Segment) FilePrefix() string {
	if p, ok := filePrefixes[s]; ok {
		return p
	}
	return fmt.Sprintf("segment_%d", int(s))
}

// ParseSegment resolves a symbolic segment name such as "NSECM".
func ParseSegment(name string) (Segment, error) {
	for seg, n := range segmentNames {
		if n == name {
			return seg, nil
		}
	}
	return 0, fmt.Errorf("unknown exchange segment %q", name)
}
