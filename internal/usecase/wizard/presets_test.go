package wizard

import (
	"errors"
	"testing"

	"reddit-growth-bot/internal/domain"
)

func TestApplyPresetOverwritesAllParams(t *testing.T) {
	target := domain.StrategyParams{
		MaxPostsPerWeek:    3,
		MaxCommentsPerPost: 1,
		CompanyMentionRate: 99,
		MentionInPosts:     true,
		MentionInComments:  false,
	}
	if err := ApplyPreset(PresetConservative, &target); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	want := domain.StrategyParams{MaxPostsPerWeek: 5, MaxCommentsPerPost: 4, CompanyMentionRate: 20, MentionInPosts: false, MentionInComments: true}
	if target != want {
		t.Fatalf("ожидали %+v, получили %+v", want, target)
	}
}

func TestApplyPresetBundles(t *testing.T) {
	cases := map[string]domain.StrategyParams{
		PresetConservative: {MaxPostsPerWeek: 5, MaxCommentsPerPost: 4, CompanyMentionRate: 20, MentionInPosts: false, MentionInComments: true},
		PresetModerate:     {MaxPostsPerWeek: 8, MaxCommentsPerPost: 8, CompanyMentionRate: 40, MentionInPosts: false, MentionInComments: true},
		PresetStandard:     {MaxPostsPerWeek: 12, MaxCommentsPerPost: 12, CompanyMentionRate: 60, MentionInPosts: true, MentionInComments: true},
		PresetAggressive:   {MaxPostsPerWeek: 15, MaxCommentsPerPost: 15, CompanyMentionRate: 80, MentionInPosts: true, MentionInComments: true},
	}
	for name, want := range cases {
		var target domain.StrategyParams
		if err := ApplyPreset(name, &target); err != nil {
			t.Fatalf("%s: не ожидали ошибку: %v", name, err)
		}
		if target != want {
			t.Fatalf("%s: ожидали %+v, получили %+v", name, want, target)
		}
	}
}

func TestApplyPresetUnknown(t *testing.T) {
	var target domain.StrategyParams
	err := ApplyPreset("Turbo", &target)
	if !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("ожидали ErrUnknownPreset, получили %v", err)
	}
	if target != (domain.StrategyParams{}) {
		t.Fatalf("неизвестный пресет не должен менять параметры")
	}
}

func TestPresetNamesOrder(t *testing.T) {
	want := []string{PresetConservative, PresetModerate, PresetStandard, PresetAggressive}
	got := PresetNames()
	if len(got) != len(want) {
		t.Fatalf("ожидали %d пресета, получили %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ожидали порядок %v, получили %v", want, got)
		}
	}
}
