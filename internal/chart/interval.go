package chart

import (
	"time"

	"dex-market-core/internal/model"
	"dex-market-core/internal/service"
)

// 支持的 K 线周期
const (
	Interval1h  = "1h"
	Interval6h  = "6h"
	Interval12h = "12h"
	Interval1d  = "1d"
	Interval1w  = "1w"
)

var supportedIntervals = map[string]struct{}{
	Interval1h:  {},
	Interval6h:  {},
	Interval12h: {},
	Interval1d:  {},
	Interval1w:  {},
}

// ValidInterval 判断周期是否受支持
func ValidInterval(key string) bool {
	_, ok := supportedIntervals[key]
	return ok
}

// Align 将时间向下对齐到周期边界 (按 t 所在时区的日历时间)
// 1h 对齐整点，6h/12h 对齐当日零点起的固定块，1d 对齐零点，1w 对齐最近的周一零点
func Align(t time.Time, key string) (time.Time, error) {
	y, m, d := t.Date()
	loc := t.Location()
	switch key {
	case Interval1h:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc), nil
	case Interval6h, Interval12h:
		block := 6
		if key == Interval12h {
			block = 12
		}
		h := t.Hour()
		return time.Date(y, m, d, h-h%block, 0, 0, 0, loc), nil
	case Interval1d:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case Interval1w:
		offset := (int(t.Weekday()) + 6) % 7 // 周一为 0
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, model.InvalidArgument("Align", "unsupported interval %q", key)
}

// next 返回下一个周期边界，跨夏令时按日历推进
func next(t time.Time, key string) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	var n time.Time
	switch key {
	case Interval1h:
		n = t.Add(time.Hour)
	case Interval6h:
		n = time.Date(y, m, d, t.Hour()+6, 0, 0, 0, loc)
	case Interval12h:
		n = time.Date(y, m, d, t.Hour()+12, 0, 0, 0, loc)
	case Interval1d:
		n = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	case Interval1w:
		n = time.Date(y, m, d+7, 0, 0, 0, 0, loc)
	}
	aligned, err := Align(n, key)
	if err != nil || !aligned.After(t) {
		// 对齐后没有前进时退回名义时长
		dur, _ := service.ParseIntervalDuration(key)
		return t.Add(dur)
	}
	return aligned
}
