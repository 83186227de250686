package hashrate

type Point struct {
	MinerV     int64 `yaml:"hr"`
	CsV        int64 `yaml:"chr"`
	BuildInCsV int64 `yaml:"buildInCsV,omitempty"`
}

func (p Point) Total() int64 {
	return p.MinerV + p.CsV + p.BuildInCsV
}
