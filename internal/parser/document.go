package parser

import (
	"fmt"
	"strings"

	"cvstudio/internal/schema"
)

// document.go 把通用键值文档（JSON 对象或 YAML 映射）抽取成规范简历。
// 同时兼容两套键名：本系统导出的规范键（personalInfo/experience/...）
// 与 JSON-Resume 风格键（basics/work/...），保证 JSON 导出可以原样再导入。

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		// YAML/JSON 的标量强制转换可能把电话、年份解析成数字。
		return fmt.Sprint(v)
	}
}

func mapAt(doc map[string]any, key string) map[string]any {
	if v, ok := doc[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func listAt(doc map[string]any, key string) []map[string]any {
	v, ok := doc[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

func textAt(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := collapseWhitespace(asString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func dateAt(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := NormalizeDate(asString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringListAt(m map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := m[key].([]any)
		if !ok {
			continue
		}
		items := make([]string, 0, len(raw))
		for _, entry := range raw {
			if s := collapseWhitespace(asString(entry)); s != "" {
				items = append(items, s)
			}
		}
		return items
	}
	return []string{}
}

func extractPersonalInfo(doc map[string]any) schema.PersonalInfo {
	if canonical := mapAt(doc, "personalInfo"); canonical != nil {
		return schema.PersonalInfo{
			FullName: textAt(canonical, "fullName", "name"),
			Email:    textAt(canonical, "email"),
			Phone:    textAt(canonical, "phone"),
			Location: textAt(canonical, "location"),
			Summary:  textAt(canonical, "summary"),
			Website:  textAt(canonical, "website", "url"),
			LinkedIn: textAt(canonical, "linkedin"),
			GitHub:   textAt(canonical, "github"),
		}
	}

	basics := mapAt(doc, "basics")
	if basics == nil {
		return schema.PersonalInfo{}
	}

	info := schema.PersonalInfo{
		FullName: textAt(basics, "name", "fullName"),
		Email:    textAt(basics, "email"),
		Phone:    textAt(basics, "phone"),
		Summary:  textAt(basics, "summary"),
		Website:  textAt(basics, "url", "website"),
	}

	switch loc := basics["location"].(type) {
	case string:
		info.Location = collapseWhitespace(loc)
	case map[string]any:
		pieces := []string{}
		for _, key := range []string{"city", "region", "countryCode"} {
			if s := textAt(loc, key); s != "" {
				pieces = append(pieces, s)
			}
		}
		info.Location = strings.Join(pieces, ", ")
	}

	// profiles 子列表按网络名大小写不敏感匹配，抽取 linkedin/github 主页。
	for _, profile := range listAt(basics, "profiles") {
		network := strings.ToLower(textAt(profile, "network"))
		url := textAt(profile, "url")
		if url == "" {
			continue
		}
		switch network {
		case "linkedin":
			if info.LinkedIn == "" {
				info.LinkedIn = url
			}
		case "github":
			if info.GitHub == "" {
				info.GitHub = url
			}
		}
	}

	return info
}

func extractResume(doc map[string]any) *schema.Resume {
	resume := &schema.Resume{PersonalInfo: extractPersonalInfo(doc)}

	experienceRows := listAt(doc, "experience")
	if experienceRows == nil {
		experienceRows = listAt(doc, "work")
	}
	for _, row := range experienceRows {
		resume.Experience = append(resume.Experience, schema.Experience{
			Company:     textAt(row, "company", "name", "organization"),
			Position:    textAt(row, "position", "title"),
			StartDate:   dateAt(row, "startDate"),
			EndDate:     dateAt(row, "endDate"),
			Description: textAt(row, "description", "summary"),
			Highlights:  stringListAt(row, "highlights"),
		})
	}

	for _, row := range listAt(doc, "education") {
		resume.Education = append(resume.Education, schema.Education{
			Institution: textAt(row, "institution", "school"),
			Degree:      textAt(row, "degree", "studyType"),
			Field:       textAt(row, "field", "area"),
			StartDate:   dateAt(row, "startDate"),
			EndDate:     dateAt(row, "endDate"),
		})
	}

	for _, row := range listAt(doc, "skills") {
		group := schema.SkillGroup{
			Category: textAt(row, "category", "name"),
			Items:    stringListAt(row, "items", "keywords"),
		}
		if group.Category == "" && len(group.Items) == 0 {
			continue
		}
		if group.Category == "" {
			group.Category = "General"
		}
		resume.Skills = append(resume.Skills, group)
	}

	for _, row := range listAt(doc, "projects") {
		resume.Projects = append(resume.Projects, schema.Project{
			Name:        textAt(row, "name", "title"),
			Description: textAt(row, "description", "summary"),
			URL:         textAt(row, "url"),
			Highlights:  stringListAt(row, "highlights"),
		})
	}

	certificationRows := listAt(doc, "certifications")
	if certificationRows == nil {
		certificationRows = listAt(doc, "certificates")
	}
	for _, row := range certificationRows {
		resume.Certifications = append(resume.Certifications, schema.Certification{
			Name:   textAt(row, "name", "title"),
			Issuer: textAt(row, "issuer"),
			Date:   dateAt(row, "date"),
		})
	}

	for _, row := range listAt(doc, "languages") {
		resume.Languages = append(resume.Languages, schema.Language{
			Name:    textAt(row, "name", "language"),
			Fluency: textAt(row, "fluency"),
		})
	}

	for _, row := range listAt(doc, "volunteer") {
		resume.Volunteer = append(resume.Volunteer, schema.Volunteer{
			Organization: textAt(row, "organization"),
			Role:         textAt(row, "role", "position"),
			StartDate:    dateAt(row, "startDate"),
			EndDate:      dateAt(row, "endDate"),
			Description:  textAt(row, "description", "summary"),
		})
	}

	for _, row := range listAt(doc, "publications") {
		resume.Publications = append(resume.Publications, schema.Publication{
			Title:     textAt(row, "title", "name"),
			Publisher: textAt(row, "publisher"),
			Date:      dateAt(row, "date", "releaseDate"),
			URL:       textAt(row, "url"),
		})
	}

	for _, row := range listAt(doc, "awards") {
		resume.Awards = append(resume.Awards, schema.Award{
			Title:  textAt(row, "title", "name"),
			Issuer: textAt(row, "issuer", "awarder"),
			Date:   dateAt(row, "date"),
		})
	}

	resume.EnsureDefaults()
	return resume
}
