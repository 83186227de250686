package curve

import (
	"math/big"
)

type Int64AVGData[D int64] struct {
	sum   *big.Int
	count int
}

func GenInt64AVGData[D int64](n int64) Int64AVGData[D] {
	return Int64AVGData[D]{
		sum:   big.NewInt(n),
		count: 1,
	}
}

func (o Int64AVGData[D]) Combine(d D) ImmutableData[D] {
	z := new(big.Int).Set(o.sum)

	return Int64AVGData[D]{
		sum:   z.Add(z, big.NewInt(int64(d))),
		count: o.count + 1,
	}
}

func (o Int64AVGData[D]) Clone() ImmutableData[D] {
	return Int64AVGData[D]{
		sum:   new(big.Int).Set(o.sum),
		count: o.count,
	}
}

func (o Int64AVGData[D]) Calc() D {
	z := new(big.Int).Set(o.sum)

	return D(z.Div(z, big.NewInt(int64(o.count))).Int64())
}

// Int64MaxData keeps the largest sample of a bucket.
type Int64MaxData[D int64] struct {
	max D
}

func GenInt64MaxData[D int64](n int64) Int64MaxData[D] {
	return Int64MaxData[D]{
		max: D(n),
	}
}

func (o Int64MaxData[D]) Combine(d D) ImmutableData[D] {
	if d > o.max {
		return Int64MaxData[D]{
			max: d,
		}
	}

	return o
}

func (o Int64MaxData[D]) Clone() ImmutableData[D] {
	return o
}

func (o Int64MaxData[D]) Calc() D {
	return o.max
}
