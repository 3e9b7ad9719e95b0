package http

import (
	"embed"
	"html/template"
	"net/url"

	"bookingrisk/booking"
	"bookingrisk/predictor"
)

//go:embed templates/*.html
var templateFS embed.FS

// 页面模板在启动时解析一次
var (
	indexPage   = template.Must(template.ParseFS(templateFS, "templates/index.html", "templates/layout.html"))
	predictPage = template.Must(template.ParseFS(templateFS, "templates/predict.html", "templates/layout.html"))
)

type indexView struct {
	ContactEmail string
	ContactPhone string
}

// predictView 预测页面数据。Verdict 为 nil 时不渲染预测结果面板
type predictView struct {
	Sections []formSection
	Summary  []booking.SummaryRow
	Verdict  *predictor.Verdict
	Error    string
}

type formSection struct {
	Title  string
	Fields []formField
}

type formField struct {
	Spec  booking.FieldSpec
	Value string
}

// buildSections 按分区组织表单字段并回填输入值。rec 为 nil 时（输入校验失败）
// 回填用户的原始输入
func buildSections(values url.Values, rec *booking.Record) []formSection {
	current := map[string]string{}
	if rec != nil {
		for _, row := range rec.Summary() {
			current[row.Field] = row.Value
		}
	}

	var sections []formSection
	index := map[string]int{}
	for _, spec := range booking.Fields() {
		value, ok := current[spec.Name]
		if !ok {
			value = values.Get(spec.Name)
		}
		if value == "" {
			value = spec.Default
		}
		i, ok := index[spec.Section]
		if !ok {
			i = len(sections)
			index[spec.Section] = i
			sections = append(sections, formSection{Title: spec.Section})
		}
		sections[i].Fields = append(sections[i].Fields, formField{Spec: spec, Value: value})
	}
	return sections
}
