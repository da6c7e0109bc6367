package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Tone is the writing tone recorded with every post
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneTechnical    Tone = "technical"
	ToneCreative     Tone = "creative"
	ToneAcademic     Tone = "academic"
)

var tones = []Tone{ToneProfessional, ToneCasual, ToneTechnical, ToneCreative, ToneAcademic}

func (t Tone) Valid() bool { return slices.Contains(tones, t) }

// Language is an ISO 639-1 code supported by the editor
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageFrench  Language = "fr"
	LanguageGerman  Language = "de"
	LanguageHindi   Language = "hi"
	LanguageChinese Language = "zh"
)

var languageNames = map[Language]string{
	LanguageEnglish: "English",
	LanguageSpanish: "Spanish",
	LanguageFrench:  "French",
	LanguageGerman:  "German",
	LanguageHindi:   "Hindi",
	LanguageChinese: "Chinese",
}

func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// Name returns the English name of the language, e.g. "French".
func (l Language) Name() string {
	return languageNames[l]
}

// BlockStyle is the paragraph style of a text block
type BlockStyle string

const (
	StyleNormal     BlockStyle = "normal"
	StyleH1         BlockStyle = "h1"
	StyleH2         BlockStyle = "h2"
	StyleH3         BlockStyle = "h3"
	StyleH4         BlockStyle = "h4"
	StyleBlockquote BlockStyle = "blockquote"
)

var blockStyles = []BlockStyle{StyleNormal, StyleH1, StyleH2, StyleH3, StyleH4, StyleBlockquote}

// Mark is an inline decorator applied to a span
type Mark string

const (
	MarkStrong        Mark = "strong"
	MarkEm            Mark = "em"
	MarkCode          Mark = "code"
	MarkUnderline     Mark = "underline"
	MarkStrikeThrough Mark = "strike-through"
)

var marks = []Mark{MarkStrong, MarkEm, MarkCode, MarkUnderline, MarkStrikeThrough}

const (
	blockTypeText  = "block"
	blockTypeImage = "image"
	spanType       = "span"
)

// Span is a run of text sharing the same set of marks
type Span struct {
	Key   string `json:"_key,omitempty"`
	Text  string `json:"text"`
	Marks []Mark `json:"marks"`
}

func (s Span) MarshalJSON() ([]byte, error) {
	type alias Span
	a := alias(s)
	if a.Marks == nil {
		a.Marks = []Mark{}
	}
	return json.Marshal(struct {
		Type string `json:"_type"`
		alias
	}{spanType, a})
}

// Block is one entry of a post body. Order is rendering order.
type Block interface {
	BlockType() string
	Validate() error
}

// TextBlock is a styled paragraph made of spans
type TextBlock struct {
	Key      string     `json:"_key,omitempty"`
	Style    BlockStyle `json:"style"`
	Children []Span     `json:"children"`
}

func (TextBlock) BlockType() string { return blockTypeText }

func (b TextBlock) Validate() error {
	if !slices.Contains(blockStyles, b.Style) {
		return fmt.Errorf("unsupported block style %q", b.Style)
	}
	for i, span := range b.Children {
		for _, m := range span.Marks {
			if !slices.Contains(marks, m) {
				return fmt.Errorf("span %d: unsupported mark %q", i, m)
			}
		}
	}
	return nil
}

// PlainText joins the text of all spans.
func (b TextBlock) PlainText() string {
	var sb strings.Builder
	for _, span := range b.Children {
		sb.WriteString(span.Text)
	}
	return sb.String()
}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	type alias TextBlock
	a := alias(b)
	if a.Children == nil {
		a.Children = []Span{}
	}
	return json.Marshal(struct {
		Type string `json:"_type"`
		alias
	}{blockTypeText, a})
}

// ImageBlock embeds an uploaded image
type ImageBlock struct {
	Key     string `json:"_key,omitempty"`
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

func (ImageBlock) BlockType() string { return blockTypeImage }

func (b ImageBlock) Validate() error {
	if strings.TrimSpace(b.URL) == "" {
		return fmt.Errorf("image block requires a url")
	}
	return nil
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	type alias ImageBlock
	return json.Marshal(struct {
		Type string `json:"_type"`
		alias
	}{blockTypeImage, alias(b)})
}

// Blocks is an ordered post body
type Blocks []Block

func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*bs = nil
		return nil
	}

	out := make(Blocks, 0, len(raw))
	for i, item := range raw {
		var head struct {
			Type string `json:"_type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}

		switch head.Type {
		case blockTypeText:
			var b TextBlock
			if err := json.Unmarshal(item, &b); err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			if b.Style == "" {
				b.Style = StyleNormal
			}
			for j := range b.Children {
				b.Children[j].Marks = dedupeMarks(b.Children[j].Marks)
			}
			out = append(out, b)
		case blockTypeImage:
			var b ImageBlock
			if err := json.Unmarshal(item, &b); err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			out = append(out, b)
		default:
			return fmt.Errorf("block %d: unsupported block type %q", i, head.Type)
		}
	}
	*bs = out
	return nil
}

// Validate checks every block and reports the first invalid one.
func (bs Blocks) Validate() error {
	for i, b := range bs {
		if b == nil {
			return fmt.Errorf("block %d is empty", i)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// marks are a set; keep first occurrence order
func dedupeMarks(in []Mark) []Mark {
	if len(in) < 2 {
		return in
	}
	out := in[:0:0]
	for _, m := range in {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
