package datastore

import (
	"strings"
	"unicode/utf16"
)

// Wire shapes of the Notion REST API. Only the fields bookfill reads are declared.

type notionDatabase struct {
	Object     string                  `json:"object"`
	ID         string                  `json:"id"`
	Properties map[string]notionColumn `json:"properties"`
}

type notionColumn struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type notionPage struct {
	Object     string                    `json:"object"`
	ID         string                    `json:"id"`
	Cover      *notionFile               `json:"cover"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionFile struct {
	Type     string         `json:"type"`
	External *notionFileURL `json:"external,omitempty"`
	File     *notionFileURL `json:"file,omitempty"`
}

type notionFileURL struct {
	URL string `json:"url"`
}

type notionProperty struct {
	Type     string           `json:"type"`
	Title    []notionRichText `json:"title"`
	RichText []notionRichText `json:"rich_text"`
	Number   *float64         `json:"number"`
	URL      *string          `json:"url"`
	Select   *notionSelect    `json:"select"`
	Date     *notionDate      `json:"date"`
}

type notionRichText struct {
	PlainText string `json:"plain_text"`
}

type notionSelect struct {
	Name string `json:"name"`
}

type notionDate struct {
	Start string `json:"start"`
}

type notionQueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type notionErrorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// maxTextRunLength is the API limit for the content of a single rich text
// object, counted in UTF-16 code units.
const maxTextRunLength = 2000

func (p notionPage) toRecord() Record {
	rec := Record{
		ID:         p.ID,
		Properties: make(map[string]Envelope, len(p.Properties)),
	}

	if p.Cover != nil {
		switch {
		case p.Cover.External != nil:
			rec.Cover = p.Cover.External.URL
		case p.Cover.File != nil:
			rec.Cover = p.Cover.File.URL
		}
	}

	for name, prop := range p.Properties {
		rec.Properties[name] = prop.toEnvelope()
	}

	return rec
}

func (p notionProperty) toEnvelope() Envelope {
	t := ParseColumnType(p.Type)
	env := Envelope{Type: t}

	switch t {
	case Title:
		env.Text = joinPlainText(p.Title)
	case RichText:
		env.Text = joinPlainText(p.RichText)
	case Number:
		env.Number = p.Number
	case URL:
		if p.URL != nil {
			env.URL = *p.URL
		}
	case Select:
		if p.Select != nil {
			env.Choice = p.Select.Name
		}
	case Date:
		if p.Date != nil {
			env.Date = p.Date.Start
		}
	case Unsupported:
	}

	return env
}

func joinPlainText(blocks []notionRichText) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.PlainText)
	}
	return strings.TrimSpace(sb.String())
}

// encodeProperty converts an envelope into the property value payload of a page update.
// ok is false for envelopes that cannot be written.
func encodeProperty(e Envelope) (map[string]any, bool) {
	switch e.Type {
	case Title, RichText:
		return map[string]any{e.Type.String(): textRuns(e.Text)}, true
	case Number:
		if e.Number == nil {
			return map[string]any{"number": nil}, true
		}
		return map[string]any{"number": *e.Number}, true
	case URL:
		return map[string]any{"url": e.URL}, true
	case Select:
		return map[string]any{"select": map[string]string{"name": e.Choice}}, true
	case Date:
		return map[string]any{"date": map[string]string{"start": e.Date}}, true
	case Unsupported:
		return nil, false
	}
	return nil, false
}

func textRuns(s string) []map[string]any {
	var runs []map[string]any
	start, units := 0, 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > maxTextRunLength {
			runs = append(runs, textRun(s[start:i]))
			start, units = i, 0
		}
		units += n
	}
	if start < len(s) {
		runs = append(runs, textRun(s[start:]))
	}
	if runs == nil {
		runs = []map[string]any{}
	}
	return runs
}

func textRun(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]string{"content": content},
	}
}
