// Package timeutil 统一的时区、日期键与时长换算
//
// 系统内所有日期时间均以 UTC+05:30 记录，与宿主机时区无关；
// 除此处之外不做任何时区换算。
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout 日-月-年 日期键（与历史导出文件兼容）
	DateLayout = "02-01-2006"
	// ISODateLayout 可排序的 ISO 日期
	ISODateLayout = "2006-01-02"
	// ClockLayout 12 小时制打卡时间，例如 "09.00.00 AM"
	ClockLayout = "03.04.05 PM"
)

var (
	ErrInvalidDate      = errors.New("日期格式无效")
	ErrInvalidClock     = errors.New("时间格式无效")
	ErrNegativeDuration = errors.New("下班时间早于上班时间")
)

// Location 固定民用时区 UTC+05:30
var Location = time.FixedZone("IST", 5*3600+30*60)

// Clock 当前时间来源，业务层通过它取 now，测试时可替换
type Clock interface {
	Now() time.Time
}

// SystemClock 读取系统时间并换算到 Location
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().In(Location) }

// FixedClock 固定时间（测试用）
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T.In(Location) }

// NowLocal 当前时间（UTC+05:30）
func NowLocal() time.Time { return SystemClock{}.Now() }

// DateOf 截断为 Location 下的自然日零点
func DateOf(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

// FormatDate 输出 日-月-年 日期键
func FormatDate(t time.Time) string { return t.In(Location).Format(DateLayout) }

// FormatISODate 输出 年-月-日
func FormatISODate(t time.Time) string { return t.In(Location).Format(ISODateLayout) }

// ParseDate 解析 日-月-年 或 ISO 日期，返回 Location 下的零点
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, ISODateLayout} {
		if t, err := time.ParseInLocation(layout, s, Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatClock 输出 12 小时制时间（含秒与上下午标记）
func FormatClock(t time.Time) string { return t.In(Location).Format(ClockLayout) }

// ParseClock 解析 "09.00.00 AM" 或 "09:00:00 AM"，返回参考日 0000-01-01 上的时刻
func ParseClock(s string) (time.Time, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range []string{ClockLayout, "03:04:05 PM"} {
		if t, err := time.ParseInLocation(layout, s, Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// ClockOn 将时间字符串锚定到指定自然日
func ClockOn(date time.Time, clock string) (time.Time, error) {
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	d := DateOf(date)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, Location), nil
}

// DurationBetween 以同一参考日解析两个时间并求差。
// 不处理跨午夜：out 早于 in 时返回 ErrNegativeDuration。
func DurationBetween(inClock, outClock string) (time.Duration, error) {
	in, err := ParseClock(inClock)
	if err != nil {
		return 0, err
	}
	out, err := ParseClock(outClock)
	if err != nil {
		return 0, err
	}
	return Span(in, out)
}

// Span 两个时刻的时长，负值返回 ErrNegativeDuration
func Span(in, out time.Time) (time.Duration, error) {
	d := out.Sub(in)
	if d < 0 {
		return 0, ErrNegativeDuration
	}
	return d.Truncate(time.Second), nil
}

// FormatDuration 输出补零的 HH:MM:SS，小时可超过 24
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParseDuration 解析 HH:MM:SS（小时可超过 24），也接受 "1 day, 02:00:00" 的历史写法
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var days int64
	if idx := strings.Index(s, "day"); idx > 0 {
		if _, err := fmt.Sscanf(strings.TrimSpace(s[:idx]), "%d", &days); err != nil {
			return 0, fmt.Errorf("时长格式无效: %q", s)
		}
		if comma := strings.Index(s, ","); comma > 0 {
			s = strings.TrimSpace(s[comma+1:])
		} else {
			s = "0:00:00"
		}
	}
	var h, m, sec int64
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("时长格式无效: %q", s)
	}
	if m < 0 || m > 59 || sec < 0 || sec > 59 || h < 0 || days < 0 {
		return 0, fmt.Errorf("时长格式无效: %q", s)
	}
	total := days*86400 + h*3600 + m*60 + sec
	return time.Duration(total) * time.Second, nil
}

// IsSunday 判断自然日是否为周日
func IsSunday(t time.Time) bool { return t.In(Location).Weekday() == time.Sunday }

// WithinDays 判断 day 是否落在 [today-maxDays, today] 闭区间内
func WithinDays(day, today time.Time, maxDays int) bool {
	d, t := DateOf(day), DateOf(today)
	if d.After(t) {
		return false
	}
	earliest := t.AddDate(0, 0, -maxDays)
	return !d.Before(earliest)
}

// StartOfMonth 当月 1 日零点
func StartOfMonth(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, Location)
}
