package schema

// Resume 是与来源格式无关的简历规范结构（Canonical CV Record）。
// 所有列表字段默认是空切片而不是 nil，日期一律为 ISO `YYYY-MM-DD`。
type Resume struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []SkillGroup    `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Languages      []Language      `json:"languages"`
	Volunteer      []Volunteer     `json:"volunteer"`
	Publications   []Publication   `json:"publications"`
	Awards         []Award         `json:"awards"`
}

// PersonalInfo 除 FullName/Email 外均为可选。
type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Experience 保持来源提供的插入顺序，不做重新排序。
type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// SkillGroup 按分类聚合技能条目。
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Highlights  []string `json:"highlights"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

type Language struct {
	Name    string `json:"name"`
	Fluency string `json:"fluency,omitempty"`
}

type Volunteer struct {
	Organization string `json:"organization"`
	Role         string `json:"role,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Description  string `json:"description,omitempty"`
}

type Publication struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Date      string `json:"date,omitempty"`
	URL       string `json:"url,omitempty"`
}

type Award struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// EnsureDefaults 将所有 nil 列表字段归一为空切片，保证序列化后始终是 []。
func (r *Resume) EnsureDefaults() {
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	for i := range r.Experience {
		if r.Experience[i].Highlights == nil {
			r.Experience[i].Highlights = []string{}
		}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []SkillGroup{}
	}
	for i := range r.Skills {
		if r.Skills[i].Items == nil {
			r.Skills[i].Items = []string{}
		}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		if r.Projects[i].Highlights == nil {
			r.Projects[i].Highlights = []string{}
		}
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	if r.Languages == nil {
		r.Languages = []Language{}
	}
	if r.Volunteer == nil {
		r.Volunteer = []Volunteer{}
	}
	if r.Publications == nil {
		r.Publications = []Publication{}
	}
	if r.Awards == nil {
		r.Awards = []Award{}
	}
}
