package web

import (
	"bytes"
	"fmt"
	"html/template"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdownFields are result fields holding Markdown documents.
var markdownFields = map[string]bool{
	"roadmap":           true,
	"studyPlan":         true,
	"targetedStudyPlan": true,
	"sampleAnswer":      true,
	"answer":            true,
}

var labels = map[string]string{
	"atsScore": "ATS score",
}

// goldmark escapes raw HTML unless html.WithUnsafe is set.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type resultField struct {
	Label  string
	Text   string
	HTML   template.HTML
	Items  []string
	Groups [][]resultField
	// List marks an empty list result.
	List bool
}

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// resultView flattens a flow result struct into displayable fields in
// declaration order.
func resultView(out any) ([]resultField, error) {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("unsupported result type %T", out)
	}

	t := v.Type()
	fields := make([]resultField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		field := resultField{Label: label(name)}
		fv := v.Field(i)

		switch fv.Kind() {
		case reflect.String:
			if markdownFields[name] {
				html, err := renderMarkdown(fv.String())
				if err != nil {
					return nil, err
				}
				field.HTML = html
			} else {
				field.Text = fv.String()
			}
		case reflect.Int, reflect.Int64, reflect.Int32:
			field.Text = strconv.FormatInt(fv.Int(), 10)
		case reflect.Float64, reflect.Float32:
			field.Text = strconv.FormatFloat(fv.Float(), 'f', -1, 64)
		case reflect.Slice:
			field.List = true
			for j := 0; j < fv.Len(); j++ {
				item := fv.Index(j)
				if item.Kind() == reflect.String {
					field.Items = append(field.Items, item.String())
					continue
				}
				group, err := resultView(item.Interface())
				if err != nil {
					return nil, err
				}
				field.Groups = append(field.Groups, group)
			}
		default:
			field.Text = fmt.Sprint(fv.Interface())
		}

		fields = append(fields, field)
	}

	return fields, nil
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return sf.Name
}

// label turns "readinessScore" into "Readiness score".
func label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}

	var b strings.Builder
	for i, r := range name {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
