package tui

import "strings"

type palette struct {
	Name      string
	Panel     string
	PanelAlt  string
	Text      string
	TextMuted string
	Border    string
	Accent    string
	Focus     string
	Success   string
	Warning   string
	Error     string
	Info      string
}

var paletteOrder = []string{"default", "high-contrast", "light"}

var palettes = map[string]palette{
	"default": {
		Name:      "default",
		Panel:     "#121821",
		PanelAlt:  "#10161E",
		Text:      "#E6EDF3",
		TextMuted: "#8B9AAE",
		Border:    "#223043",
		Accent:    "#25D366",
		Focus:     "#7AA2F7",
		Success:   "#3FB950",
		Warning:   "#D29922",
		Error:     "#F85149",
		Info:      "#58A6FF",
	},
	"high-contrast": {
		Name:      "high-contrast",
		Panel:     "#0A0A0A",
		PanelAlt:  "#000000",
		Text:      "#FFFFFF",
		TextMuted: "#C0C0C0",
		Border:    "#FFFFFF",
		Accent:    "#00FF5A",
		Focus:     "#FFD400",
		Success:   "#00FF5A",
		Warning:   "#FFB000",
		Error:     "#FF4040",
		Info:      "#66CCFF",
	},
	"light": {
		Name:      "light",
		Panel:     "#FFFFFF",
		PanelAlt:  "#F3F5F7",
		Text:      "#1F2328",
		TextMuted: "#656D76",
		Border:    "#D0D7DE",
		Accent:    "#128C7E",
		Focus:     "#0969DA",
		Success:   "#1A7F37",
		Warning:   "#9A6700",
		Error:     "#CF222E",
		Info:      "#0969DA",
	},
}

func resolvePalette(name string) palette {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if p, ok := palettes[trimmed]; ok {
		return p
	}
	return palettes["default"]
}

func cyclePalette(current string, delta int) palette {
	current = strings.ToLower(strings.TrimSpace(current))
	idx := 0
	for i, candidate := range paletteOrder {
		if candidate == current {
			idx = i
			break
		}
	}
	idx += delta
	for idx < 0 {
		idx += len(paletteOrder)
	}
	idx %= len(paletteOrder)
	return resolvePalette(paletteOrder[idx])
}
