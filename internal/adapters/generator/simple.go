package generator

import (
	"context"
	"fmt"
	"time"

	"reddit-growth-bot/internal/domain"
)

// SimpleGenerator реализует доменный интерфейс Generator детерминированной
// эвристикой. Используется в разработке и как запасной режим без внешнего
// сервиса генерации.
type SimpleGenerator struct{}

// NewSimple создаёт Generator.
func NewSimple() *SimpleGenerator {
	return &SimpleGenerator{}
}

var _ domain.Generator = (*SimpleGenerator)(nil)

// GenerateWeek раскладывает посты по дням недели и добавляет комментарии.
// Упоминания компании распределяются равномерно согласно CompanyMentionRate.
func (g *SimpleGenerator) GenerateWeek(_ context.Context, campaign domain.Campaign, weekStart time.Time) ([]domain.Post, error) {
	if len(campaign.Subreddits) == 0 {
		return nil, fmt.Errorf("у кампании нет сабреддитов")
	}
	if len(campaign.Personas) == 0 {
		return nil, fmt.Errorf("у кампании нет персон")
	}

	strategy := campaign.Strategy
	postCount := strategy.MaxPostsPerWeek
	if postCount < 1 {
		postCount = 1
	}

	posts := make([]domain.Post, 0, postCount)
	postMentions := 0
	commentMentions := 0
	commentTotal := 0
	for i := 0; i < postCount; i++ {
		day := weekStart.AddDate(0, 0, i%7)
		slot := i / 7
		scheduledAt := time.Date(day.Year(), day.Month(), day.Day(), 9+slot*3, 0, 0, 0, day.Location())

		subreddit := campaign.Subreddits[i%len(campaign.Subreddits)]
		author := campaign.Personas[i%len(campaign.Personas)]

		var keywordIDs []string
		topic := campaign.Company.Description
		if len(campaign.Keywords) > 0 {
			keyword := campaign.Keywords[i%len(campaign.Keywords)]
			keywordIDs = []string{keyword.ID}
			topic = keyword.Keyword
		}

		mention := false
		if strategy.MentionInPosts && (i+1)*strategy.CompanyMentionRate >= (postMentions+1)*100 {
			mention = true
			postMentions++
		}

		title := fmt.Sprintf("Looking for advice on %s", topic)
		body := fmt.Sprintf("I've been researching %s lately and wanted to hear what this community thinks. What has worked for you?", topic)
		if mention {
			body += fmt.Sprintf(" I came across %s recently and I'm curious if anyone here has tried it.", campaign.Company.Name)
		}

		post := domain.Post{
			CampaignID:     campaign.ID,
			Subreddit:      subreddit,
			Title:          title,
			Body:           body,
			AuthorUsername: author.Username,
			KeywordIDs:     keywordIDs,
			ScheduledAt:    scheduledAt,
			Status:         domain.ContentStatusPending,
		}

		for j := 0; j < strategy.MaxCommentsPerPost; j++ {
			commentAuthor := campaign.Personas[(i+1+j)%len(campaign.Personas)]
			commentAt := scheduledAt.Add(2*time.Hour + time.Duration(j)*45*time.Minute)

			commentTotal++
			commentMention := false
			if strategy.MentionInComments && commentTotal*strategy.CompanyMentionRate >= (commentMentions+1)*100 {
				commentMention = true
				commentMentions++
			}

			content := fmt.Sprintf("In my experience %s takes time, but consistency pays off.", topic)
			if commentMention {
				content = fmt.Sprintf("We had a similar problem and ended up using %s, it handled %s well.", campaign.Company.Name, topic)
			}

			comment := domain.Comment{
				Content:        content,
				AuthorUsername: commentAuthor.Username,
				ScheduledAt:    commentAt,
				Status:         domain.ContentStatusPending,
			}
			// Нечётные комментарии отвечают на предыдущий, образуя ветку.
			if j%2 == 1 {
				parent := int64(j)
				comment.ParentCommentID = &parent
			}
			post.Comments = append(post.Comments, comment)
		}

		posts = append(posts, post)
	}
	return posts, nil
}
