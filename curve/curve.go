package curve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sgostarter/i/l"
	"github.com/sgostarter/libeasygo/routineman"
	"github.com/sgostarter/libeasygo/timespan"
	"github.com/sgostarter/libmaxima/fnmaxima"
	"github.com/spf13/cast"
)

const (
	defaultMaxPointCount = 60
)

// Curve aggregates samples into time buckets, one bucket series per speed,
// and keeps the finished buckets of every key as a FunctionMaxima from the
// bucket start time to the explained point, so the peaks of a curve are
// always at hand.
type Curve[D, POINT any] struct {
	logger l.Wrapper

	baseDurationUnit time.Duration
	speeds           []int
	maxPointCount    int
	bizSystem        BizSystem[D, POINT]

	speedTimeSpans map[int]*timespan.TimeSpan

	routineMan routineman.RoutineMan

	historyLock sync.RWMutex
	history     map[string]*fnmaxima.FunctionMaxima[int64, POINT]

	dataLock sync.Mutex
	cachedDs *cache.Cache
}

func NewCurveWithConfig[D, POINT any](cfg *Config, bizSystem BizSystem[D, POINT], logger l.Wrapper) *Curve[D, POINT] {
	if cfg == nil {
		cfg = &Config{}
	}

	return NewCurve[D, POINT](cfg.BaseDurationUnit, cfg.MaxPointCount, cfg.Speeds, bizSystem, logger)
}

func NewCurve[D, POINT any](baseDurationUnit time.Duration, maxPointCount int, speeds []int,
	bizSystem BizSystem[D, POINT], logger l.Wrapper) *Curve[D, POINT] {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	logger = logger.WithFields(l.StringField(l.ClsKey, "curveImpl"))

	if baseDurationUnit <= 0 {
		baseDurationUnit = time.Minute
	}

	if maxPointCount <= 0 {
		maxPointCount = defaultMaxPointCount
	}

	if len(speeds) == 0 {
		speeds = []int{1}
	}

	if bizSystem == nil {
		logger.Fatal("no dependency objects")
	}

	speedTimeSpans := make(map[int]*timespan.TimeSpan)

	for _, speed := range speeds {
		if speed <= 0 {
			logger.Fatal("invalid speed:", speed)
		}

		speedTimeSpans[speed] = timespan.NewTimeSpan(baseDurationUnit * time.Duration(speed))
	}

	cacheDuration := baseDurationUnit * 2
	if cacheDuration < time.Second {
		cacheDuration = time.Second
	}

	c := &Curve[D, POINT]{
		logger:           logger,
		baseDurationUnit: baseDurationUnit,
		speeds:           speeds,
		maxPointCount:    maxPointCount,
		bizSystem:        bizSystem,
		speedTimeSpans:   speedTimeSpans,
		routineMan:       routineman.NewRoutineMan(context.Background(), logger),
		history:          make(map[string]*fnmaxima.FunctionMaxima[int64, POINT]),
		cachedDs:         cache.New(cacheDuration, cacheDuration),
	}

	c.init()

	return c
}

func (impl *Curve[D, POINT]) TriggerStop() {
	impl.routineMan.TriggerStop()
}

func (impl *Curve[D, POINT]) Wait() {
	impl.routineMan.Wait()
}

func (impl *Curve[D, POINT]) init() {
	for _, key := range impl.bizSystem.GetKeys() {
		for _, speed := range impl.speeds {
			impl.history[impl.genHistoryKey(speed, key)] = impl.newHistory()
		}
	}

	impl.routineMan.StartRoutine(impl.statisticRoutine, "statisticRoutine")
}

func (impl *Curve[D, POINT]) newHistory() *fnmaxima.FunctionMaxima[int64, POINT] {
	return fnmaxima.New[int64, POINT](func(a, b int64) bool {
		return a < b
	}, impl.bizSystem.LessPOINT, fnmaxima.WithLogger(impl.logger))
}

func (impl *Curve[D, POINT]) genHistoryKey(speed int, key string) string {
	if speed == 1 {
		return key
	}

	return fmt.Sprintf("%d-%s", speed, key)
}

func (impl *Curve[D, POINT]) genCachedKey(speed int, timeLabel string) string {
	return fmt.Sprintf("%d:%s", speed, timeLabel)
}

func (impl *Curve[D, POINT]) getCachedDsOnLabel(speed int, timeLabel string) *sync.Map {
	s := impl.genCachedKey(speed, timeLabel)

	if i, ok := impl.cachedDs.Get(s); ok {
		m, _ := i.(*sync.Map)

		return m
	}

	m := &sync.Map{}
	if err := impl.cachedDs.Add(s, m, impl.baseDurationUnit*time.Duration(speed)*2); err != nil {
		// another writer created the bucket first
		i, _ := impl.cachedDs.Get(s)
		m, _ = i.(*sync.Map)
	}

	return m
}

func (impl *Curve[D, POINT]) SetData(k string, d D) {
	impl.setDataAt(k, d, time.Now())
}

func (impl *Curve[D, POINT]) setDataAt(k string, d D, t time.Time) {
	for _, speed := range impl.speeds {
		m := impl.getCachedDsOnLabel(speed, impl.speedTimeSpans[speed].GetLabel(t))
		if m == nil {
			impl.logger.WithFields(l.IntField("speed", speed)).Error("logic error: no bucket")

			continue
		}

		impl.dataLock.Lock()

		if v, ok := m.Load(k); ok {
			// nolint:forcetypeassert
			m.Store(k, v.(ImmutableData[D]).Combine(d))
		} else {
			m.Store(k, impl.bizSystem.NewImmutableData(d))
		}

		impl.dataLock.Unlock()
	}
}

func (impl *Curve[D, POINT]) statisticRoutine(ctx context.Context, _ func() bool) {
	speedLabels := make(map[int]string)

	for _, speed := range impl.speeds {
		speedLabels[speed] = impl.speedTimeSpans[speed].GetCurrentLabel()
	}

	sleepDuration := time.Second * 10
	if impl.baseDurationUnit/2 < sleepDuration {
		sleepDuration = impl.baseDurationUnit / 2
	}

	loop := true

	for loop {
		select {
		case <-ctx.Done():
			loop = false

			continue
		case <-time.After(sleepDuration):
			for _, speed := range impl.speeds {
				oldLabel := speedLabels[speed]
				newLabel := impl.speedTimeSpans[speed].GetCurrentLabel()

				if oldLabel == newLabel {
					continue
				}

				speedLabels[speed] = newLabel

				impl.flushBucket(speed, oldLabel)
			}
		}
	}
}

// flushBucket explains the finished bucket timeLabel of speed and records one
// point per curve key at the bucket start time.
func (impl *Curve[D, POINT]) flushBucket(speed int, timeLabel string) {
	cachedKey := impl.genCachedKey(speed, timeLabel)

	i, ok := impl.cachedDs.Get(cachedKey)
	if !ok {
		return
	}

	impl.cachedDs.Delete(cachedKey)

	m, ok := i.(*sync.Map)
	if !ok {
		impl.logger.Fatal("logic error: not a map")

		return
	}

	mm := make(map[string]D)

	m.Range(func(key, value any) bool {
		// nolint:forcetypeassert
		mm[cast.ToString(key)] = value.(ImmutableData[D]).Calc() // the value is immutable

		return true
	})

	t, _ := impl.speedTimeSpans[speed].Label2Time(timeLabel)
	if t.IsZero() {
		impl.logger.WithFields(l.StringField("label", timeLabel)).Error("invalid time label")

		return
	}

	for key, point := range impl.bizSystem.ExplainDataAt(mm) {
		impl.addPoint(impl.genHistoryKey(speed, key), t.Unix(), point)
	}
}

func (impl *Curve[D, POINT]) addPoint(historyKey string, at int64, point POINT) {
	impl.historyLock.Lock()
	defer impl.historyLock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			impl.logger.WithFields(l.StringField("key", historyKey), l.StringField("panic", fmt.Sprint(r))).
				Error("add point failed")
		}
	}()

	fm, ok := impl.history[historyKey]
	if !ok {
		fm = impl.newHistory()
		impl.history[historyKey] = fm
	}

	fm.SetValue(at, point)

	for fm.Size() > impl.maxPointCount {
		fm.Erase(fm.Begin().Arg())
	}
}

func (impl *Curve[D, POINT]) GetCurves(speed int, k string, pointCnt int) (tss []int64, ps []POINT) {
	return impl.getCurvesAt(speed, k, pointCnt, time.Now())
}

// getCurvesAt returns the pointCnt buckets before the one holding now, time
// ascending. Missing buckets are filled with empty points; an empty newest
// bucket is left out since it may not have been flushed yet.
func (impl *Curve[D, POINT]) getCurvesAt(speed int, k string, pointCnt int, now time.Time) (tss []int64, ps []POINT) {
	timeSpan := impl.speedTimeSpans[speed]
	if timeSpan == nil {
		return
	}

	ts, _ := timeSpan.Label2Time(timeSpan.GetLabel(now))

	step := impl.baseDurationUnit * time.Duration(speed)

	impl.historyLock.RLock()

	fm := impl.history[impl.genHistoryKey(speed, k)]

	for ts = ts.Add(-step); pointCnt > 0; pointCnt-- {
		tss = append(tss, ts.Unix())

		p := impl.bizSystem.NewPOINT()

		if fm != nil {
			if v, err := fm.ValueAt(ts.Unix()); err == nil {
				p = v
			}
		}

		ps = append(ps, p)

		ts = ts.Add(-step)
	}

	impl.historyLock.RUnlock()

	if len(ps) == 0 {
		return
	}

	if impl.bizSystem.IsEmptyPOINT(ps[0]) {
		tss = tss[1:]
		ps = ps[1:]
	}

	for i, j := 0, len(tss)-1; i < j; i, j = i+1, j-1 {
		tss[i], tss[j] = tss[j], tss[i]
		ps[i], ps[j] = ps[j], ps[i]
	}

	return
}

// GetPeaks returns up to n local maxima of the recorded curve, highest first,
// earlier bucket first among equal points.
func (impl *Curve[D, POINT]) GetPeaks(speed int, k string, n int) (tss []int64, ps []POINT) {
	impl.historyLock.RLock()
	defer impl.historyLock.RUnlock()

	fm := impl.history[impl.genHistoryKey(speed, k)]
	if fm == nil || n <= 0 {
		return
	}

	for p := range fm.Maxima() {
		tss = append(tss, p.Arg())
		ps = append(ps, p.Value())

		if len(tss) >= n {
			break
		}
	}

	return
}

// PointCount returns how many buckets of k are recorded for speed.
func (impl *Curve[D, POINT]) PointCount(speed int, k string) int {
	impl.historyLock.RLock()
	defer impl.historyLock.RUnlock()

	fm := impl.history[impl.genHistoryKey(speed, k)]
	if fm == nil {
		return 0
	}

	return fm.Size()
}
