package wizard

import (
	"errors"

	"reddit-growth-bot/internal/domain"
)

// ErrUnknownPreset возвращается при неизвестном имени пресета.
var ErrUnknownPreset = errors.New("неизвестный пресет стратегии")

// Имена доступных пресетов стратегии.
const (
	PresetConservative = "Conservative"
	PresetModerate     = "Moderate"
	PresetStandard     = "Standard"
	PresetAggressive   = "Aggressive"
)

var presetOrder = []string{PresetConservative, PresetModerate, PresetStandard, PresetAggressive}

var presets = map[string]domain.StrategyParams{
	PresetConservative: {MaxPostsPerWeek: 5, MaxCommentsPerPost: 4, CompanyMentionRate: 20, MentionInPosts: false, MentionInComments: true},
	PresetModerate:     {MaxPostsPerWeek: 8, MaxCommentsPerPost: 8, CompanyMentionRate: 40, MentionInPosts: false, MentionInComments: true},
	PresetStandard:     {MaxPostsPerWeek: 12, MaxCommentsPerPost: 12, CompanyMentionRate: 60, MentionInPosts: true, MentionInComments: true},
	PresetAggressive:   {MaxPostsPerWeek: 15, MaxCommentsPerPost: 15, CompanyMentionRate: 80, MentionInPosts: true, MentionInComments: true},
}

// ApplyPreset безусловно перезаписывает все пять параметров стратегии
// значениями именованного пресета. Текущее состояние на результат не влияет.
func ApplyPreset(name string, target *domain.StrategyParams) error {
	bundle, ok := presets[name]
	if !ok {
		return ErrUnknownPreset
	}
	*target = bundle
	return nil
}

// PresetNames возвращает имена пресетов в порядке показа.
func PresetNames() []string {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out
}
