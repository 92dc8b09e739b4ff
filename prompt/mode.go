// Package prompt assembles the generation request: a mode-specific
// instruction, the strictness policy, windowed conversation history, and the
// retrieved context.
package prompt

import "fmt"

// Mode selects the response style. The set is closed; each mode carries its
// instruction template and default sampling temperature as data.
type Mode int

const (
	ModeFactual Mode = iota
	ModeDetailed
	ModeBullets
	ModeCompare
	ModeExecutive
)

// StrictTemperature overrides every mode's default when strict mode is on.
const StrictTemperature = 0.05

type modeSpec struct {
	name        string
	description string
	temperature float32
	instruction string
}

var modeSpecs = [...]modeSpec{
	ModeFactual: {
		name:        "factual",
		description: "Returns a direct, concise answer to your question.",
		temperature: 0.1,
		instruction: `You are Pagewise, a precise document analysis AI.
Answer the question DIRECTLY and CONCISELY based solely on the provided context.
Do not add unnecessary elaboration. If the context doesn't contain the answer, say so clearly.
Be factual and confident.`,
	},
	ModeDetailed: {
		name:        "detailed",
		description: "Provides thorough context and elaboration.",
		temperature: 0.2,
		instruction: `You are Pagewise, a thorough document analysis AI.
Provide a comprehensive, detailed explanation based on the provided context.
Cover all relevant aspects, provide background where useful, and ensure completeness.
Structure your response clearly with logical flow.`,
	},
	ModeBullets: {
		name:        "bullets",
		description: "Structures key points as a scannable bullet list.",
		temperature: 0.15,
		instruction: `You are Pagewise, a document analysis AI.
Format your response as a well-organized bullet list.
Extract and present key points clearly and concisely.
Use nested bullets for sub-points when appropriate.
Start with a one-sentence summary, then bullets.`,
	},
	ModeCompare: {
		name:        "compare",
		description: "Identifies similarities and differences across sources.",
		temperature: 0.15,
		instruction: `You are Pagewise, a document analysis AI specializing in comparison.
Identify similarities and differences across the provided context sections.
Use a structured format: first list similarities, then differences, then synthesis.
Be precise about which source each point comes from.`,
	},
	ModeExecutive: {
		name:        "executive",
		description: "Creates a high-level overview suitable for briefings.",
		temperature: 0.2,
		instruction: `You are Pagewise, a document analysis AI.
Create a concise executive summary suitable for a business briefing.
Format: Key Finding (1-2 sentences), then 3-5 key takeaways, then a brief conclusion.
Focus on actionable insights and high-level conclusions.`,
	},
}

func Modes() []Mode {
	return []Mode{ModeFactual, ModeDetailed, ModeBullets, ModeCompare, ModeExecutive}
}

func (m Mode) valid() bool {
	return m >= ModeFactual && m <= ModeExecutive
}

func (m Mode) String() string {
	if !m.valid() {
		return "unknown"
	}
	return modeSpecs[m].name
}

func (m Mode) Description() string {
	if !m.valid() {
		return ""
	}
	return modeSpecs[m].description
}

func (m Mode) Instruction() string {
	if !m.valid() {
		return modeSpecs[ModeFactual].instruction
	}
	return modeSpecs[m].instruction
}

// DefaultTemperature is the mode's sampling temperature when strict mode is
// off.
func (m Mode) DefaultTemperature() float32 {
	if !m.valid() {
		return modeSpecs[ModeFactual].temperature
	}
	return modeSpecs[m].temperature
}

// Temperature resolves the effective sampling temperature: strict mode
// forces StrictTemperature regardless of mode.
func Temperature(m Mode, strict bool) float32 {
	if strict {
		return StrictTemperature
	}
	return m.DefaultTemperature()
}

// ParseMode maps a mode name to its Mode, rejecting unknown names.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes() {
		if modeSpecs[m].name == name {
			return m, nil
		}
	}
	return ModeFactual, fmt.Errorf("unknown response mode: %q", name)
}
