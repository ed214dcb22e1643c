// Package sheet 电子表格读写：导入支持 .xlsx/.xls，导出统一生成 .xlsx
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 100000

var (
	ErrNoWorksheet    = errors.New("文件中没有工作表")
	ErrMultipleSheets = errors.New("仅支持单个工作表的文件")
	ErrEmptyWorksheet = errors.New("工作表为空")
)

// ReadRows 读取第一个工作表的所有行（含表头）
// .xls 走 extrame/xls，其余按 .xlsx 处理
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("解析 xls 失败: %w", err)
		}
		if wb.NumSheets() == 0 {
			return nil, ErrNoWorksheet
		}
		if wb.NumSheets() > 1 {
			return nil, ErrMultipleSheets
		}
		rows := wb.ReadAllCells(maxXLSRows)
		if len(rows) == 0 {
			return nil, ErrEmptyWorksheet
		}
		return rows, nil
	default:
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("解析 xlsx 失败: %w", err)
		}
		defer func() { _ = f.Close() }()

		name := f.GetSheetName(0)
		if name == "" {
			return nil, ErrNoWorksheet
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrEmptyWorksheet
		}
		return rows, nil
	}
}

// NormalizeHeader 表头归一化：去空白、小写、空格转下划线
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// HeaderIndex 表头 → 列下标
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// MissingColumns 返回缺失的必需列（按 required 顺序）
func MissingColumns(idx map[string]int, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := idx[NormalizeHeader(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Cell 按列名取单元格值，越界或列不存在时返回空串
func Cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[NormalizeHeader(col)]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ── 导出 ──

// Table 一个工作表的内容
type Table struct {
	Name    string
	Title   string // 非空时占用第 1 行并合并单元格
	Headers []string
	Rows    [][]interface{}
	Widths  []float64 // 可选，按列设置宽度
}

// Write 生成 .xlsx
func Write(tables ...Table) (*bytes.Buffer, error) {
	if len(tables) == 0 {
		return nil, errors.New("至少需要一个工作表")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, err
		}
		if err := writeTable(f, t, headerStyle, titleStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeTable(f *excelize.File, t Table, headerStyle, titleStyle int) error {
	row := 1
	if t.Title != "" && len(t.Headers) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellValue(t.Name, first, t.Title); err != nil {
			return err
		}
		if err := f.MergeCell(t.Name, first, last); err != nil {
			return err
		}
		_ = f.SetCellStyle(t.Name, first, last, titleStyle)
		row++
	}

	for i, w := range t.Widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(t.Name, col, col, w)
	}

	if len(t.Headers) > 0 {
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(t.Name, start, &t.Headers); err != nil {
			return err
		}
		end, _ := excelize.CoordinatesToCellName(len(t.Headers), row)
		_ = f.SetCellStyle(t.Name, start, end, headerStyle)
		row++
	}

	for _, r := range t.Rows {
		start, _ := excelize.CoordinatesToCellName(1, row)
		values := r
		if err := f.SetSheetRow(t.Name, start, &values); err != nil {
			return err
		}
		row++
	}
	return nil
}
