package hashrate

import (
	"strconv"
	"strings"

	"github.com/sgostarter/libmaxima/curve"
	"github.com/spf13/cast"
)

func NewSystem(spt Supporter) *System {
	return &System{
		spt: spt,
	}
}

// System explains hashrate samples keyed proxy-id:account, where accounts
// ending in .cs or .cs_buildin are counted separately.
type System struct {
	spt Supporter
}

func (sys *System) ExplainDataAt(m map[string]int64) map[string]Point {
	rm := make(map[string]*Point)

	fnMustSD4Key := func(key string) *Point {
		sd, exists := rm[key]
		if exists {
			return sd
		}

		sd = &Point{}
		rm[key] = sd

		return sd
	}

	for key, d := range m {
		ps := strings.Split(cast.ToString(key), ":")
		if len(ps) != 2 {
			continue
		}

		proxyID, err := strconv.ParseInt(ps[0], 10, 64)
		if err != nil {
			continue
		}

		for _, sd := range []*Point{
			fnMustSD4Key(sys.spt.GetKey4All()),
			fnMustSD4Key(sys.spt.GetKey4CoinHashrate(proxyID)),
			fnMustSD4Key(sys.spt.GetKey4PoolHashrate(proxyID)),
		} {
			switch {
			case strings.HasSuffix(ps[1], ".cs"):
				sd.CsV += d
			case strings.HasSuffix(ps[1], ".cs_buildin"):
				sd.BuildInCsV += d
			default:
				sd.MinerV += d
			}
		}
	}

	retM := make(map[string]Point)

	for s, point := range rm {
		retM[s] = *point
	}

	return retM
}

func (sys *System) GetKeys() []string {
	return sys.spt.GetKeys()
}

func (sys *System) NewImmutableData(d int64) curve.ImmutableData[int64] {
	return curve.GenInt64AVGData[int64](d)
}

func (sys *System) NewPOINT() Point {
	return Point{}
}

func (sys *System) IsEmptyPOINT(p Point) bool {
	return p.MinerV == 0 && p.CsV == 0
}

// LessPOINT ranks points by total hashrate.
func (sys *System) LessPOINT(a, b Point) bool {
	return a.Total() < b.Total()
}
