package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// 月份名到月号的固定映射，兼容全称与三字母缩写。
var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// NormalizeDate 将来源日期统一成 ISO `YYYY-MM-DD`。
// 支持 "2020-05-17"、"2020-05"、"2020"、"Jan 2020"、"05/2020"；
// "Present"/"Current" 与无法识别的值归一为空串（字段缺省）。
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	switch strings.ToLower(s) {
	case "present", "current", "now", "ongoing":
		return ""
	}

	if parts := strings.Split(s, "-"); isDigits(parts[0]) && len(parts[0]) == 4 {
		year := parts[0]
		switch len(parts) {
		case 1:
			return year + "-01-01"
		case 2:
			if month, ok := monthNumber(parts[1]); ok {
				return fmt.Sprintf("%s-%02d-01", year, month)
			}
		case 3:
			month, okM := monthNumber(parts[1])
			day, errD := strconv.Atoi(parts[2])
			if okM && errD == nil && day >= 1 && day <= 31 {
				return fmt.Sprintf("%s-%02d-%02d", year, month, day)
			}
		}
		return ""
	}

	// "May 2020" / "September 2020"
	if fields := strings.Fields(s); len(fields) == 2 {
		if month, ok := monthNames[strings.ToLower(strings.Trim(fields[0], ".,"))]; ok {
			if year := strings.Trim(fields[1], ".,"); isDigits(year) && len(year) == 4 {
				return fmt.Sprintf("%s-%02d-01", year, month)
			}
		}
	}

	// "05/2020"
	if parts := strings.Split(s, "/"); len(parts) == 2 {
		if month, ok := monthNumber(parts[0]); ok {
			if year := parts[1]; isDigits(year) && len(year) == 4 {
				return fmt.Sprintf("%s-%02d-01", year, month)
			}
		}
	}

	return ""
}

func monthNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return 0, false
	}
	month, err := strconv.Atoi(s)
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return month, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// collapseWhitespace 将自由文本中的连续空白（含换行）折叠成单个空格。
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
