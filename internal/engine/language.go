package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/logger"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
)

type phraseSeed struct {
	category string
	text     string
}

// curatedPhrases 固定短语集
var curatedPhrases = []phraseSeed{
	{"greetings", "Hello"},
	{"greetings", "Good morning"},
	{"greetings", "Thank you very much"},
	{"greetings", "Excuse me"},
	{"greetings", "Goodbye"},
	{"directions", "Where is the train station?"},
	{"directions", "How do I get to this address?"},
	{"directions", "Is it far from here?"},
	{"directions", "Could you show me on the map, please?"},
	{"emergencies", "Help!"},
	{"emergencies", "Please call the police"},
	{"emergencies", "I need a doctor"},
	{"emergencies", "Where is the nearest hospital?"},
	{"dining", "A table for two, please"},
	{"dining", "Could I see the menu, please?"},
	{"dining", "I am allergic to nuts"},
	{"dining", "The bill, please"},
}

// interestPhrases 按兴趣补充的短语
var interestPhrases = []struct {
	keywords []string
	phrases  []string
}{
	{[]string{"food", "cuisine", "dining", "market"}, []string{"What do you recommend?", "Is this dish spicy?"}},
	{[]string{"museum", "art", "history", "culture"}, []string{"How much is the entrance ticket?", "What time does it close?"}},
	{[]string{"shopping", "fashion"}, []string{"How much does this cost?", "Can I pay by card?"}},
	{[]string{"nature", "hiking", "park", "outdoor"}, []string{"Is this trail open today?", "Where does the trail start?"}},
	{[]string{"nightlife", "music", "bar"}, []string{"What time does the show start?", "Hey, this place is cool!"}},
	{[]string{"temple", "shrine", "church"}, []string{"May I take photos here?", "Do I need to remove my shoes?"}},
}

// culturalNotes 推理不可用时使用的静态文化提示
var culturalNotes = map[string][]string{
	"ja": {"Bowing is the standard greeting; a slight bow is fine for visitors", "Tipping is not customary and can cause confusion", "Speak quietly on public transport and avoid phone calls"},
	"ko": {"Use two hands when giving or receiving items from elders", "Remove shoes when entering homes and some restaurants", "Tipping is not expected"},
	"zh": {"Present and receive business cards with both hands", "Avoid sticking chopsticks upright in rice", "Mobile payment is far more common than cash or cards"},
	"th": {"Never touch someone's head or point your feet at people or Buddha images", "Dress modestly when visiting temples", "Show respect when the royal family is mentioned"},
	"ar": {"Use your right hand for eating and passing items", "Dress conservatively, especially at religious sites", "Public displays of affection are frowned upon"},
	"es": {"Lunch and dinner are eaten late, often after 2pm and 9pm", "A kiss on each cheek is a common greeting among friends", "Tipping around 5-10% is appreciated but not mandatory"},
	"fr": {"Always greet shopkeepers with 'Bonjour' when entering", "Service is included in restaurant bills; rounding up is polite", "Use the formal 'vous' with strangers"},
	"de": {"Punctuality is highly valued", "Sunday is a quiet day and most shops are closed", "Round up or add about 10% when tipping"},
	"it": {"Cappuccino is usually a morning drink only", "Cover shoulders and knees in churches", "A small coperto (cover charge) is normal on restaurant bills"},
	"pt": {"Greetings are warm; a handshake or cheek kiss is common", "Dinner starts late in the evening", "Tipping around 10% is appreciated"},
	"hi": {"Remove shoes before entering temples and homes", "Use your right hand for eating and giving items", "Dress modestly at religious sites"},
}

var defaultCulturalNotes = []string{
	"Learn a few local greetings; the effort is widely appreciated",
	"Observe how locals dress and behave at religious sites",
}

var (
	formalMarkers   = []string{"please", "thank you", "could you", "excuse me", "may i"}
	informalMarkers = []string{"hey", "cool"}
)

// LanguageEngine 语言与文化助手
type LanguageEngine struct {
	src Sources
	llm reasoning.Invoker
}

// NewLanguageEngine 创建语言引擎
func NewLanguageEngine(src Sources, llm reasoning.Invoker) *LanguageEngine {
	return &LanguageEngine{src: src, llm: llm}
}

// Type implements Engine
func (e *LanguageEngine) Type() model.AnalysisType { return model.AnalysisLanguage }

const unknownLanguage = "unknown"

type languageReply struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type annotationReply struct {
	CulturalNotes []string `json:"cultural_notes"`
	Phrases       []struct {
		Source        string `json:"source"`
		Pronunciation string `json:"pronunciation"`
		CulturalNote  string `json:"cultural_note"`
		Register      string `json:"register"`
	} `json:"phrases"`
}

// Analyze implements Engine
func (e *LanguageEngine) Analyze(ctx context.Context, task model.AnalysisTask) *model.AnalysisResult {
	req := task.Request
	var acc accumulator

	language, code := e.language(ctx, req.Destination, &acc)
	kit := &model.LanguageKit{
		Destination:  req.Destination,
		Language:     language,
		LanguageCode: code,
		Phrases:      phraseList(req.Interests),
	}

	switch code {
	case "":
		// 语言未知时不做翻译，也不拿原文充当译文
		kit.Notice = model.TranslationUnavailable
		acc.miss("translation", fmt.Errorf("%w: destination language unknown", model.ErrUnavailable))
	case "en":
		for i := range kit.Phrases {
			kit.Phrases[i].Translation = kit.Phrases[i].Source
			kit.Phrases[i].TranslationAvailable = true
		}
	default:
		sources := make([]string, len(kit.Phrases))
		for i, p := range kit.Phrases {
			sources[i] = p.Source
		}
		translations, err := e.src.Translate(ctx, sources, code)
		if err == nil && len(translations) != len(sources) {
			err = fmt.Errorf("%w: translation count mismatch", model.ErrUnavailable)
		}
		if err != nil {
			logger.Log.Warnf("语言助手 [%s] 翻译不可用: %v", req.Destination, err)
			kit.Notice = model.TranslationUnavailable
			acc.miss("translation", err)
		} else {
			acc.ok(string(gateway.ProviderTranslate))
			for i := range kit.Phrases {
				kit.Phrases[i].Translation = translations[i]
				kit.Phrases[i].TranslationAvailable = true
			}
		}
	}

	e.annotate(ctx, kit, &acc)
	return acc.result(kit)
}

// language 目的地主要语言：先查表，再问推理。都失败时返回 unknown 和空代码
func (e *LanguageEngine) language(ctx context.Context, dest string, acc *accumulator) (string, string) {
	if p, ok := LookupProfile(dest); ok {
		return p.Language, p.LanguageCode
	}
	var reply languageReply
	err := reasoning.InvokeJSON(ctx, e.llm, reasoning.Prompt{
		Role:    "Linguist",
		Goal:    "Identify the dominant language spoken by locals at a travel destination",
		Task:    `Return JSON: {"language": "<English name>", "code": "<ISO 639-1 code>"}`,
		Context: "Destination: " + dest,
	}, &reply)
	if err == nil && strings.TrimSpace(reply.Code) == "" {
		err = fmt.Errorf("%w: no language code in reply", model.ErrReasoningUnavailable)
	}
	if err != nil {
		logger.Log.Warnf("无法识别 [%s] 的语言: %v", dest, err)
		acc.miss("language", err)
		return unknownLanguage, ""
	}
	acc.ok(sourceReasoning)
	return reply.Language, strings.ToLower(strings.TrimSpace(reply.Code))
}

// annotate 用推理补充发音、文化提示与语体，失败时使用静态提示
func (e *LanguageEngine) annotate(ctx context.Context, kit *model.LanguageKit, acc *accumulator) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Destination: %s\nLanguage: %s (%s)\nPhrases:\n", kit.Destination, kit.Language, kit.LanguageCode)
	for _, p := range kit.Phrases {
		if p.TranslationAvailable {
			fmt.Fprintf(&sb, "- %s => %s\n", p.Source, p.Translation)
		} else {
			fmt.Fprintf(&sb, "- %s\n", p.Source)
		}
	}

	var reply annotationReply
	err := reasoning.InvokeJSON(ctx, e.llm, reasoning.Prompt{
		Role: "Language and Cultural Assistant",
		Goal: "Help travelers communicate respectfully",
		Task: `For each phrase give a romanized pronunciation hint, the register (formal, neutral or informal)
and a short cultural note where relevant. Add 3-5 general etiquette notes.
Return JSON: {"cultural_notes": ["..."], "phrases": [{"source": "...", "pronunciation": "...", "register": "...", "cultural_note": "..."}]}`,
		Context: sb.String(),
	}, &reply)
	if err != nil {
		logger.Log.Warnf("语言助手 [%s] 文化注释生成失败，使用静态提示: %v", kit.Destination, err)
		acc.miss(sourceReasoning, err)
		kit.CulturalNotes = staticNotes(kit.LanguageCode)
		return
	}
	acc.ok(sourceReasoning)

	kit.CulturalNotes = reply.CulturalNotes
	if len(kit.CulturalNotes) == 0 {
		kit.CulturalNotes = staticNotes(kit.LanguageCode)
	}
	bySource := make(map[string]int, len(kit.Phrases))
	for i, p := range kit.Phrases {
		bySource[strings.ToLower(p.Source)] = i
	}
	for _, a := range reply.Phrases {
		i, ok := bySource[strings.ToLower(strings.TrimSpace(a.Source))]
		if !ok {
			continue
		}
		kit.Phrases[i].Pronunciation = a.Pronunciation
		kit.Phrases[i].CulturalNote = a.CulturalNote
		switch r := model.Register(strings.ToLower(a.Register)); r {
		case model.RegisterFormal, model.RegisterNeutral, model.RegisterInformal:
			kit.Phrases[i].Register = r
		}
	}
}

func staticNotes(code string) []string {
	if notes, ok := culturalNotes[code]; ok {
		return append([]string(nil), notes...)
	}
	return append([]string(nil), defaultCulturalNotes...)
}

// phraseList 固定短语加兴趣短语，去重
func phraseList(interests string) []model.Phrase {
	var out []model.Phrase
	seen := make(map[string]bool)
	add := func(category, text string) {
		if seen[text] {
			return
		}
		seen[text] = true
		out = append(out, model.Phrase{Category: category, Source: text, Register: registerOf(text)})
	}
	for _, p := range curatedPhrases {
		add(p.category, p.text)
	}
	lower := strings.ToLower(interests)
	for _, ip := range interestPhrases {
		for _, kw := range ip.keywords {
			if strings.Contains(lower, kw) {
				for _, text := range ip.phrases {
					add("interests", text)
				}
				break
			}
		}
	}
	return out
}

// registerOf 按礼貌用语判断语体
func registerOf(text string) model.Register {
	switch {
	case countKeywords(text, formalMarkers) > 0:
		return model.RegisterFormal
	case countKeywords(text, informalMarkers) > 0:
		return model.RegisterInformal
	default:
		return model.RegisterNeutral
	}
}
