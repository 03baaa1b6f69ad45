package model

// Register 语体/正式程度
type Register string

const (
	RegisterFormal   Register = "formal"
	RegisterNeutral  Register = "neutral"
	RegisterInformal Register = "informal"
)

// TranslationUnavailable 翻译不可用时的标记
const TranslationUnavailable = "translation unavailable"

// Phrase 短语条目
type Phrase struct {
	Category             string   `json:"category"` // greetings / directions / emergencies / dining / interests
	Source               string   `json:"source"`
	Translation          string   `json:"translation,omitempty"`
	TranslationAvailable bool     `json:"translation_available"`
	Register             Register `json:"register"`
	Pronunciation        string   `json:"pronunciation,omitempty"`
	CulturalNote         string   `json:"cultural_note,omitempty"`
}

// LanguageKit 语言与文化助手输出
type LanguageKit struct {
	Destination   string   `json:"destination"`
	Language      string   `json:"language"`
	LanguageCode  string   `json:"language_code"`
	Phrases       []Phrase `json:"phrases"`
	CulturalNotes []string `json:"cultural_notes,omitempty"`
	Notice        string   `json:"notice,omitempty"`
}

// Analysis implements Payload
func (*LanguageKit) Analysis() AnalysisType { return AnalysisLanguage }
