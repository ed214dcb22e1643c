package service

import (
	"sort"
	"time"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/pkg/timeutil"
)

// 纯函数聚合：不访问存储，按自然日（而非日期文本）过滤

// inRange 自然日闭区间判断
func inRange(day, start, end time.Time) bool {
	d := timeutil.DateOf(day)
	return !d.Before(timeutil.DateOf(start)) && !d.After(timeutil.DateOf(end))
}

type attendanceGroupKey struct {
	supervisor string
	code       string
	name       string
}

type attendanceGroup struct {
	dates    map[string]struct{}
	seconds  int64
	sundays  int
	holidays int
}

// AggregateAttendance 按 (主管, 技师编码, 技师姓名) 汇总考勤
//
// TotalDays 为出现过的不同日期数；TotalHours 累加非空时长；
// SundayCount 只统计周日已完成的班次。结果按姓名、编码排序，无数据时返回空切片。
func AggregateAttendance(records []model.Attendance, start, end time.Time) []dto.AttendanceSummaryRow {
	groups := make(map[attendanceGroupKey]*attendanceGroup)
	for i := range records {
		r := &records[i]
		if !inRange(r.AttendanceDate, start, end) {
			continue
		}
		key := attendanceGroupKey{supervisor: r.SupervisorName, code: r.Code, name: r.Name}
		g, ok := groups[key]
		if !ok {
			g = &attendanceGroup{dates: make(map[string]struct{})}
			groups[key] = g
		}
		g.dates[timeutil.FormatISODate(r.AttendanceDate)] = struct{}{}
		if r.ShiftSeconds != nil {
			g.seconds += *r.ShiftSeconds
			if timeutil.IsSunday(r.AttendanceDate) {
				g.sundays++
			}
		}
		if r.Holiday {
			g.holidays++
		}
	}

	rows := make([]dto.AttendanceSummaryRow, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, dto.AttendanceSummaryRow{
			SupervisorName: k.supervisor,
			Code:           k.code,
			Name:           k.name,
			TotalDays:      len(g.dates),
			TotalHours:     timeutil.FormatDuration(time.Duration(g.seconds) * time.Second),
			SundayCount:    g.sundays,
			HolidayCount:   g.holidays,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].SupervisorName < rows[j].SupervisorName
	})
	return rows
}

// GroupBy 台数汇总的分组键
type GroupBy int

const (
	// GroupByWorkstation 按工位
	GroupByWorkstation GroupBy = iota
	// GroupBySupervisorWorkstationAdvisor 按 (主管, 工位, 顾问)
	GroupBySupervisorWorkstationAdvisor
)

// ServiceRow 台数汇总的输入行，两种日报都转换为它
type ServiceRow struct {
	Date            time.Time
	SupervisorName  string
	WorkstationName string
	AdvisorName     string
	Counts          model.ServiceCounts
}

type serviceGroupKey struct {
	supervisor  string
	workstation string
	advisor     string
}

// BuildServiceSummary 过滤日期后按分组键逐字段求和，结果按分组键排序
func BuildServiceSummary(rows []ServiceRow, start, end time.Time, group GroupBy) []dto.ServiceSummaryRow {
	sums := make(map[serviceGroupKey]*model.ServiceCounts)
	for _, r := range rows {
		if !inRange(r.Date, start, end) {
			continue
		}
		key := serviceGroupKey{workstation: r.WorkstationName}
		if group == GroupBySupervisorWorkstationAdvisor {
			key.supervisor = r.SupervisorName
			key.advisor = r.AdvisorName
		}
		c, ok := sums[key]
		if !ok {
			c = &model.ServiceCounts{}
			sums[key] = c
		}
		// 重算后再累加，不信任存量派生值
		counts := r.Counts
		counts.Recompute()
		c.Add(counts)
	}

	result := make([]dto.ServiceSummaryRow, 0, len(sums))
	for k, c := range sums {
		result = append(result, dto.ServiceSummaryRow{
			SupervisorName:  k.supervisor,
			WorkstationName: k.workstation,
			AdvisorName:     k.advisor,
			Counts:          toCountsDTO(*c),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.SupervisorName != b.SupervisorName {
			return a.SupervisorName < b.SupervisorName
		}
		if a.WorkstationName != b.WorkstationName {
			return a.WorkstationName < b.WorkstationName
		}
		return a.AdvisorName < b.AdvisorName
	})
	return result
}

func workstationRows(ms []model.WorkstationMetric) []ServiceRow {
	rows := make([]ServiceRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, ServiceRow{
			Date:            m.MetricDate,
			SupervisorName:  m.SupervisorName,
			WorkstationName: m.WorkstationName,
			Counts:          m.Counts,
		})
	}
	return rows
}

func advisorRows(ms []model.AdvisorMetric) []ServiceRow {
	rows := make([]ServiceRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, ServiceRow{
			Date:            m.MetricDate,
			SupervisorName:  m.SupervisorName,
			WorkstationName: m.WorkstationName,
			AdvisorName:     m.AdvisorName,
			Counts:          m.Counts,
		})
	}
	return rows
}
