package curve

import (
	"time"

	"gopkg.in/yaml.v3"
)

type ImmutableData[D any] interface {
	Combine(d D) ImmutableData[D]
	Calc() D
	Clone() ImmutableData[D]
}

type BizSystem[D, POINT any] interface {
	ExplainDataAt(m map[string]D) map[string]POINT

	GetKeys() []string

	NewImmutableData(d D) ImmutableData[D]
	NewPOINT() POINT
	IsEmptyPOINT(p POINT) bool

	// LessPOINT orders points for peak detection. Points that are mutually
	// non-less are equal peaks.
	LessPOINT(a, b POINT) bool
}

type Config struct {
	BaseDurationUnit time.Duration `yaml:"baseDurationUnit" json:"baseDurationUnit"`
	MaxPointCount    int           `yaml:"maxPointCount" json:"maxPointCount"`
	Speeds           []int         `yaml:"speeds" json:"speeds"`
}

func ParseConfig(d []byte) (cfg *Config, err error) {
	cfg = &Config{}

	err = yaml.Unmarshal(d, cfg)
	if err != nil {
		cfg = nil
	}

	return
}
