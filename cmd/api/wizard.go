package main

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/usecase/wizard"
)

type wizardPersonaState struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	ToneStyle string `json:"tone_style"`
	Expanded  bool   `json:"expanded"`
}

type wizardStateResponse struct {
	SessionID   string               `json:"session_id"`
	Step        int                  `json:"step"`
	CanAdvance  bool                 `json:"can_advance"`
	CanSubmit   bool                 `json:"can_submit"`
	Warnings    []string             `json:"warnings"`
	SubmittedID int64                `json:"submitted_id,omitempty"`
	Draft       wizardDraftState     `json:"draft"`
	Personas    []wizardPersonaState `json:"personas"`
}

type wizardDraftState struct {
	CompanyName        string           `json:"company_name"`
	CompanyWebsite     string           `json:"company_website"`
	CompanyDescription string           `json:"company_description"`
	CampaignName       string           `json:"campaign_name"`
	CampaignType       string           `json:"campaign_type"`
	CampaignTypes      []string         `json:"campaign_types"`
	StartDate          string           `json:"start_date"`
	EndDate            string           `json:"end_date"`
	Keywords           []string         `json:"keywords"`
	Subreddits         []string         `json:"subreddits"`
	Strategy           strategyResponse `json:"strategy"`
	Presets            []string         `json:"presets"`
}

func (a *app) wizardGet(w http.ResponseWriter, r *http.Request) (*wizard.Controller, string, bool) {
	sid := chi.URLParam(r, "sid")
	ctrl, err := a.registry.Get(sid)
	if err != nil {
		writeError(w, http.StatusNotFound, "сессия мастера не найдена или истекла")
		return nil, "", false
	}
	return ctrl, sid, true
}

func renderWizardState(sid string, ctrl *wizard.Controller) wizardStateResponse {
	draft := ctrl.Draft()
	strategy := draft.Strategy
	state := wizardStateResponse{
		SessionID:   sid,
		Step:        int(ctrl.Step()),
		CanAdvance:  ctrl.CanAdvance(),
		CanSubmit:   ctrl.CanSubmit(),
		Warnings:    ctrl.Warnings(),
		SubmittedID: ctrl.SubmittedID(),
		Draft: wizardDraftState{
			CompanyName:        draft.CompanyName,
			CompanyWebsite:     draft.CompanyWebsite,
			CompanyDescription: draft.CompanyDescription,
			CampaignName:       draft.CampaignName,
			CampaignType:       draft.CampaignType,
			CampaignTypes:      wizard.CampaignTypes,
			StartDate:          draft.StartDate,
			EndDate:            draft.EndDate,
			Keywords:           draft.Keywords.Values(),
			Subreddits:         draft.Subreddits.Values(),
			Strategy: strategyResponse{
				MaxPostsPerWeek:    strategy.MaxPostsPerWeek,
				MaxCommentsPerPost: strategy.MaxCommentsPerPost,
				CompanyMentionRate: strategy.CompanyMentionRate,
				MentionInPosts:     strategy.MentionInPosts,
				MentionInComments:  strategy.MentionInComments,
			},
			Presets: wizard.PresetNames(),
		},
	}
	for _, persona := range draft.Personas {
		state.Personas = append(state.Personas, wizardPersonaState{
			ID:        persona.ID,
			Username:  persona.Username,
			ToneStyle: persona.ToneStyle,
			Expanded:  draft.Expanded.Has(persona.ID),
		})
	}
	return state
}

func (a *app) wizardCreate(w http.ResponseWriter, r *http.Request) {
	catalogs, err := a.master.LoadCatalogs(r.Context())
	if err != nil {
		a.log.Error().Err(err).Msg("api: загрузка справочников для мастера")
		writeError(w, http.StatusInternalServerError, "не удалось загрузить справочники")
		return
	}
	ctrl := wizard.NewController(
		a.log.With().Str("component", "wizard").Logger(),
		a.campaigns,
		a.campaigns,
		wizard.Catalogs{
			Keywords:   catalogs.Keywords,
			Subreddits: catalogs.Subreddits,
			Personas:   catalogs.Personas,
		},
	)
	sid := a.registry.Create(ctrl)
	writeJSON(w, http.StatusCreated, renderWizardState(sid, ctrl))
}

func (a *app) wizardState(w http.ResponseWriter, r *http.Request) {
	ctrl, sid, ok := a.wizardGet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, renderWizardState(sid, ctrl))
}

func (a *app) wizardDelete(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	a.registry.Delete(sid)
	w.WriteHeader(http.StatusNoContent)
}

type wizardDraftRequest struct {
	CompanyName        *string `json:"company_name"`
	CompanyWebsite     *string `json:"company_website"`
	CompanyDescription *string `json:"company_description"`

	CampaignName *string `json:"campaign_name"`
	CampaignType *string `json:"campaign_type"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`

	Preset   *string           `json:"preset"`
	Strategy *strategyResponse `json:"strategy"`

	AddKeyword      *string `json:"add_keyword"`
	RemoveKeyword   *string `json:"remove_keyword"`
	AddSubreddit    *string `json:"add_subreddit"`
	RemoveSubreddit *string `json:"remove_subreddit"`

	TogglePersona  *int64 `json:"toggle_persona"`
	ToggleExpanded *int64 `json:"toggle_expanded"`
}

func (a *app) wizardPatchDraft(w http.ResponseWriter, r *http.Request) {
	ctrl, sid, ok := a.wizardGet(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var req wizardDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	draft := ctrl.Draft()
	if req.CompanyName != nil || req.CompanyWebsite != nil || req.CompanyDescription != nil {
		name, website, description := draft.CompanyName, draft.CompanyWebsite, draft.CompanyDescription
		if req.CompanyName != nil {
			name = *req.CompanyName
		}
		if req.CompanyWebsite != nil {
			website = *req.CompanyWebsite
		}
		if req.CompanyDescription != nil {
			description = *req.CompanyDescription
		}
		ctrl.SetCompany(name, website, description)
	}

	if req.CampaignName != nil || req.CampaignType != nil || req.StartDate != nil || req.EndDate != nil {
		name, campaignType := draft.CampaignName, draft.CampaignType
		startDate, endDate := draft.StartDate, draft.EndDate
		if req.CampaignName != nil {
			name = *req.CampaignName
		}
		if req.CampaignType != nil {
			campaignType = *req.CampaignType
		}
		if req.StartDate != nil {
			startDate = *req.StartDate
		}
		if req.EndDate != nil {
			endDate = *req.EndDate
		}
		if err := ctrl.SetBasics(name, campaignType, startDate, endDate); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Preset != nil {
		if err := ctrl.ApplyPreset(*req.Preset); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Strategy != nil {
		ctrl.SetStrategy(domain.StrategyParams{
			MaxPostsPerWeek:    req.Strategy.MaxPostsPerWeek,
			MaxCommentsPerPost: req.Strategy.MaxCommentsPerPost,
			CompanyMentionRate: req.Strategy.CompanyMentionRate,
			MentionInPosts:     req.Strategy.MentionInPosts,
			MentionInComments:  req.Strategy.MentionInComments,
		})
	}

	if req.AddKeyword != nil {
		ctrl.AddKeyword(*req.AddKeyword)
	}
	if req.RemoveKeyword != nil {
		ctrl.RemoveKeyword(*req.RemoveKeyword)
	}
	if req.AddSubreddit != nil {
		ctrl.AddSubreddit(*req.AddSubreddit)
	}
	if req.RemoveSubreddit != nil {
		ctrl.RemoveSubreddit(*req.RemoveSubreddit)
	}

	if req.TogglePersona != nil {
		if err := ctrl.TogglePersona(*req.TogglePersona); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.ToggleExpanded != nil {
		ctrl.ToggleExpanded(*req.ToggleExpanded)
	}

	writeJSON(w, http.StatusOK, renderWizardState(sid, ctrl))
}

type suggestionResponse struct {
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

func (a *app) wizardSuggestions(w http.ResponseWriter, r *http.Request) {
	ctrl, _, ok := a.wizardGet(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	var suggestions []wizard.Suggestion
	switch r.URL.Query().Get("kind") {
	case "keywords":
		suggestions = ctrl.KeywordSuggestions(query)
	case "subreddits":
		suggestions = ctrl.SubredditSuggestions(query)
	default:
		writeError(w, http.StatusBadRequest, "kind должен быть keywords или subreddits")
		return
	}
	out := make([]suggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, suggestionResponse{Value: s.Value, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *app) wizardAdvance(w http.ResponseWriter, r *http.Request) {
	ctrl, sid, ok := a.wizardGet(w, r)
	if !ok {
		return
	}
	if !ctrl.Advance() {
		writeError(w, http.StatusConflict, "гейт текущего шага не пройден")
		return
	}
	writeJSON(w, http.StatusOK, renderWizardState(sid, ctrl))
}

func (a *app) wizardRetreat(w http.ResponseWriter, r *http.Request) {
	ctrl, sid, ok := a.wizardGet(w, r)
	if !ok {
		return
	}
	if exited := ctrl.Retreat(); exited {
		a.registry.Delete(sid)
		writeJSON(w, http.StatusOK, map[string]any{"exited": true})
		return
	}
	writeJSON(w, http.StatusOK, renderWizardState(sid, ctrl))
}

func (a *app) wizardSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, sid, ok := a.wizardGet(w, r)
	if !ok {
		return
	}
	campaignID, err := ctrl.Submit(r.Context())
	switch {
	case errors.Is(err, wizard.ErrSubmitBusy), errors.Is(err, wizard.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrNotReady):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil && isPayloadError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		a.log.Error().Err(err).Msg("api: запуск кампании из мастера")
		writeError(w, http.StatusInternalServerError, "не удалось запустить кампанию")
	default:
		a.registry.Delete(sid)
		writeJSON(w, http.StatusCreated, map[string]any{"campaign_id": campaignID})
	}
}
