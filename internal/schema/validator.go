package schema

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// ValidationResult 汇总校验结果。Errors 为致命问题（字段级消息），
// Warnings 为非致命提示，需要原样透传给调用方。
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator 负责规范简历数据的校验与完整度评分。
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate 检查必填字段与邮箱格式，并对空的关键 section 产生告警。
func (v *Validator) Validate(r *Resume) ValidationResult {
	result := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if r == nil {
		result.Errors = append(result.Errors, "resume data is missing")
		return result
	}

	if r.PersonalInfo.FullName == "" {
		result.Errors = append(result.Errors, "personalInfo.fullName: required field is missing")
	}
	if r.PersonalInfo.Email == "" {
		result.Errors = append(result.Errors, "personalInfo.email: required field is missing")
	} else if err := v.validate.Var(r.PersonalInfo.Email, "email"); err != nil {
		result.Errors = append(result.Errors, "personalInfo.email: invalid email format")
	}

	if len(r.Experience) == 0 {
		result.Warnings = append(result.Warnings, "no experience entries found")
	}
	if len(r.Education) == 0 {
		result.Warnings = append(result.Warnings, "no education entries found")
	}
	if len(r.Skills) == 0 {
		result.Warnings = append(result.Warnings, "no skills found")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// 评分权重：personalInfo 40 分（姓名 10、邮箱 10、电话 5、地点 5、简介 10），
// 经历 20 分（每条 5 分封顶），教育 15 分（每条 5 分封顶），
// 技能 15 分（每组 3 分封顶），其余 section 合计 10 分。
const (
	maxQualityPoints = 100.0

	pointsFullName = 10.0
	pointsEmail    = 10.0
	pointsPhone    = 5.0
	pointsLocation = 5.0
	pointsSummary  = 10.0

	pointsPerExperience = 5.0
	maxExperiencePoints = 20.0

	pointsPerEducation = 5.0
	maxEducationPoints = 15.0

	pointsPerSkillGroup = 3.0
	maxSkillPoints      = 15.0

	maxExtraPoints = 10.0
)

// QualityScore 计算 0-100 的数据完整度评分。
// 对相同输入结果必须可复现，因此只依赖字段是否存在，不依赖时间或随机性。
func (v *Validator) QualityScore(r *Resume) int {
	if r == nil {
		return 0
	}

	var achieved float64

	if r.PersonalInfo.FullName != "" {
		achieved += pointsFullName
	}
	if r.PersonalInfo.Email != "" {
		achieved += pointsEmail
	}
	if r.PersonalInfo.Phone != "" {
		achieved += pointsPhone
	}
	if r.PersonalInfo.Location != "" {
		achieved += pointsLocation
	}
	if r.PersonalInfo.Summary != "" {
		achieved += pointsSummary
	}

	achieved += math.Min(float64(len(r.Experience))*pointsPerExperience, maxExperiencePoints)
	achieved += math.Min(float64(len(r.Education))*pointsPerEducation, maxEducationPoints)
	achieved += math.Min(float64(len(r.Skills))*pointsPerSkillGroup, maxSkillPoints)

	extraSections := 0
	if len(r.Projects) > 0 {
		extraSections++
	}
	if len(r.Certifications) > 0 {
		extraSections++
	}
	if len(r.Languages) > 0 {
		extraSections++
	}
	if len(r.Volunteer) > 0 {
		extraSections++
	}
	if len(r.Publications) > 0 {
		extraSections++
	}
	if len(r.Awards) > 0 {
		extraSections++
	}
	achieved += maxExtraPoints * float64(extraSections) / 6.0

	score := int(math.Round(100 * achieved / maxQualityPoints))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
