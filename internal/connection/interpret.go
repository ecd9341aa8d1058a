// Package connection interprets free-form messaging-link status payloads and
// owns the dashboard view state machine they drive.
package connection

import (
	"encoding/json"
	"strings"

	"github.com/tOgg1/pedrito/internal/models"
)

// Match maps any of a set of substrings to a connection state.
type Match struct {
	State      models.ConnectionState `mapstructure:"state" yaml:"state"`
	Substrings []string               `mapstructure:"substrings" yaml:"substrings"`
}

// Rules configures the interpreter. Upstream status vocabulary is not fixed,
// so matching is permissive substring search rather than an enum decode.
type Rules struct {
	// FlagKeys are boolean fields; any of them being exactly true means connected.
	FlagKeys []string `mapstructure:"flag_keys" yaml:"flag_keys"`
	// StringKeys are dotted paths to a status string, tried in order.
	StringKeys []string `mapstructure:"string_keys" yaml:"string_keys"`
	// Matches are checked in order against the lower-cased status string.
	Matches []Match `mapstructure:"matches" yaml:"matches"`
}

// DefaultRules returns the observed upstream status vocabulary.
func DefaultRules() Rules {
	return Rules{
		FlagKeys:   []string{"connected", "isAuthenticated", "authenticated", "ready"},
		StringKeys: []string{"status", "state", "connectionState", "connection_state", "status.state"},
		Matches: []Match{
			{State: models.StateConnected, Substrings: []string{"connected"}},
			{State: models.StateWaitingQR, Substrings: []string{"qr", "pair", "waiting"}},
			{State: models.StateConnecting, Substrings: []string{"connecting", "sync"}},
			{State: models.StateDisconnected, Substrings: []string{"disconnected", "logout", "logged_out"}},
		},
	}
}

// Interpreter maps raw status payloads to connection states.
type Interpreter struct {
	rules Rules
}

// NewInterpreter builds an interpreter. Empty rule lists fall back to DefaultRules.
func NewInterpreter(rules Rules) *Interpreter {
	def := DefaultRules()
	if len(rules.FlagKeys) == 0 {
		rules.FlagKeys = def.FlagKeys
	}
	if len(rules.StringKeys) == 0 {
		rules.StringKeys = def.StringKeys
	}
	if len(rules.Matches) == 0 {
		rules.Matches = def.Matches
	}
	return &Interpreter{rules: rules}
}

// Interpret maps a decoded status payload to a connection state. Boolean flags
// win over status strings. Anything unrecognized, including a payload that is
// not an object, is StateUnknown.
func (in *Interpreter) Interpret(raw any) models.ConnectionState {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.StateUnknown
	}
	for _, flag := range in.rules.FlagKeys {
		if b, ok := obj[flag].(bool); ok && b {
			return models.StateConnected
		}
	}

	text := strings.ToLower(in.statusText(obj))
	if text == "" {
		return models.StateUnknown
	}
	for _, m := range in.rules.Matches {
		for _, sub := range m.Substrings {
			if sub != "" && strings.Contains(text, strings.ToLower(sub)) {
				return m.State
			}
		}
	}
	return models.StateUnknown
}

// InterpretBytes decodes a JSON payload and interprets it.
func (in *Interpreter) InterpretBytes(body []byte) models.ConnectionState {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.StateUnknown
	}
	return in.Interpret(raw)
}

func (in *Interpreter) statusText(obj map[string]any) string {
	for _, path := range in.rules.StringKeys {
		if s, ok := lookupString(obj, strings.Split(path, ".")); ok && s != "" {
			return s
		}
	}
	return ""
}

func lookupString(obj map[string]any, path []string) (string, bool) {
	var cur any = obj
	for _, segment := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur = m[segment]
	}
	s, ok := cur.(string)
	return s, ok
}

var defaultInterpreter = NewInterpreter(DefaultRules())

// Interpret applies DefaultRules.
func Interpret(raw any) models.ConnectionState {
	return defaultInterpreter.Interpret(raw)
}
