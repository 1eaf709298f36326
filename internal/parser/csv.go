package parser

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"cvstudio/internal/schema"
)

// CSVParser 解析表格导出（电子表格/CSV 风格的记录）。
// 输入既可以是带表头的分隔文本（RFC4180，引号内的分隔符与双写引号按规则处理），
// 也可以是已经解析好的行对象 JSON 数组。
// 行是异构的：按"区分列"的存在与否归类，而不是按行位置。
type CSVParser struct{}

func NewCSVParser() *CSVParser { return &CSVParser{} }

func (p *CSVParser) Metadata() Metadata {
	return Metadata{
		Type:     "csv",
		Name:     "Tabular export parser",
		Formats:  []string{"csv"},
		Sections: []string{"personalInfo", "experience", "education", "skills", "certifications"},
	}
}

func (p *CSVParser) ParseRaw(input []byte, _ Options) *Result {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 {
		return failure("empty input")
	}

	var (
		rows []map[string]string
		err  error
	)
	if trimmed[0] == '[' {
		rows, err = rowsFromJSONArray(trimmed)
	} else {
		rows, err = rowsFromDelimitedText(trimmed)
	}
	if err != nil {
		return failure(err.Error())
	}
	if len(rows) == 0 {
		return failure("no data rows found")
	}

	return &Result{
		Success:  true,
		Data:     decomposeRows(rows),
		Errors:   []string{},
		Warnings: []string{},
	}
}

func rowsFromJSONArray(input []byte) ([]map[string]string, error) {
	var raw []map[string]any
	if err := json.Unmarshal(input, &raw); err != nil {
		return nil, fmt.Errorf("invalid row-object array: %v", err)
	}
	rows := make([]map[string]string, 0, len(raw))
	for _, entry := range raw {
		row := make(map[string]string, len(entry))
		for key, value := range entry {
			row[normalizeColumn(key)] = collapseWhitespace(asString(value))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowsFromDelimitedText(input []byte) ([]map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(input))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %v", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv input has a header but no data rows")
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = normalizeColumn(name)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = collapseWhitespace(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(collapseWhitespace(name))
}

func columnValue(row map[string]string, names ...string) string {
	for _, name := range names {
		if v, ok := row[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// decomposeRows 把扁平记录列表拆解成各 section。
// 同一行可以同时贡献多个 section（例如个人信息列与经历列并存）。
func decomposeRows(rows []map[string]string) *schema.Resume {
	resume := &schema.Resume{}
	personalSet := false
	skillGroupIndex := map[string]int{}

	for _, row := range rows {
		if !personalSet && hasPersonalColumns(row) {
			resume.PersonalInfo = personalInfoFromRow(row)
			personalSet = true
		}

		position := columnValue(row, "position", "job title", "role")
		company := columnValue(row, "company", "employer")
		if position != "" && company != "" {
			resume.Experience = append(resume.Experience, schema.Experience{
				Company:     company,
				Position:    position,
				StartDate:   NormalizeDate(columnValue(row, "start date", "from")),
				EndDate:     NormalizeDate(columnValue(row, "end date", "to")),
				Description: columnValue(row, "description", "responsibilities"),
			})
		}

		if institution := columnValue(row, "institution", "school", "university"); institution != "" {
			resume.Education = append(resume.Education, schema.Education{
				Institution: institution,
				Degree:      columnValue(row, "degree"),
				Field:       columnValue(row, "field", "field of study", "major"),
				StartDate:   NormalizeDate(columnValue(row, "start date", "from")),
				EndDate:     NormalizeDate(columnValue(row, "end date", "to", "graduation date")),
			})
		}

		if skills := columnValue(row, "skill", "skills"); skills != "" {
			category := columnValue(row, "category", "skill category")
			if category == "" {
				category = "General"
			}
			idx, ok := skillGroupIndex[category]
			if !ok {
				resume.Skills = append(resume.Skills, schema.SkillGroup{Category: category})
				idx = len(resume.Skills) - 1
				skillGroupIndex[category] = idx
			}
			resume.Skills[idx].Items = append(resume.Skills[idx].Items, splitListCell(skills)...)
		}

		if name := columnValue(row, "certification", "certificate"); name != "" {
			resume.Certifications = append(resume.Certifications, schema.Certification{
				Name:   name,
				Issuer: columnValue(row, "issuer", "issuing organization"),
				Date:   NormalizeDate(columnValue(row, "date", "issue date")),
			})
		}
	}

	resume.EnsureDefaults()
	return resume
}

func hasPersonalColumns(row map[string]string) bool {
	return columnValue(row, "full name", "name") != "" ||
		columnValue(row, "first name") != "" ||
		columnValue(row, "email", "email address") != ""
}

func personalInfoFromRow(row map[string]string) schema.PersonalInfo {
	fullName := columnValue(row, "full name", "name")
	if fullName == "" {
		fullName = strings.TrimSpace(columnValue(row, "first name") + " " + columnValue(row, "last name"))
	}
	return schema.PersonalInfo{
		FullName: fullName,
		Email:    columnValue(row, "email", "email address"),
		Phone:    columnValue(row, "phone", "phone number"),
		Location: columnValue(row, "location", "city"),
		Summary:  columnValue(row, "summary", "about"),
		Website:  columnValue(row, "website"),
		LinkedIn: columnValue(row, "linkedin"),
		GitHub:   columnValue(row, "github"),
	}
}

// splitListCell 拆分单元格里以分号/逗号分隔的多值。
func splitListCell(cell string) []string {
	split := func(r rune) bool { return r == ';' || r == ',' }
	items := []string{}
	for _, item := range strings.FieldsFunc(cell, split) {
		if s := strings.TrimSpace(item); s != "" {
			items = append(items, s)
		}
	}
	return items
}
