package publisher

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Question is one recommended question from a platform's creator feed.
type Question struct {
	QuestionID  string `json:"question_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Views       int    `json:"view_count"`
	Answers     int    `json:"answer_count"`
	Followers   int    `json:"follower_count"`
	Hot         int    `json:"hot_score"`
	AuthorName  string `json:"author_name"`
}

// Marketing prefixes the feed glues onto question titles.
var titlePrefixes = []string{"飙升", "新问", "标题"}

// CleanTitle strips the feed's marketing prefixes and surrounding
// whitespace. Idempotent; cleaning a clean title is a no-op.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for changed := true; changed; {
		changed = false
		for _, prefix := range titlePrefixes {
			if strings.HasPrefix(title, prefix) {
				title = strings.TrimSpace(strings.TrimPrefix(title, prefix))
				changed = true
			}
		}
	}
	return title
}

// HotScore weights answer and follower counts above raw views.
func HotScore(views, answers, followers int) int {
	return views + 10*answers + 5*followers
}

// feedEnvelope is the creator feed response shape. The counts live inside the
// nested question object; the error member is absent on success.
type feedEnvelope struct {
	Error json.RawMessage `json:"error"`
	Data  []struct {
		Question struct {
			ID        json.Number `json:"id"`
			Title     string      `json:"title"`
			Excerpt   string      `json:"excerpt"`
			URL       string      `json:"url"`
			Views     int         `json:"visit_count"`
			Answers   int         `json:"answer_count"`
			Followers int         `json:"follower_count"`
			Author    struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"question"`
	} `json:"data"`
	Paging json.RawMessage `json:"paging"`
}

// parseQuestionFeed decodes the in-page fetch result into scored questions,
// hottest first.
func parseQuestionFeed(raw string) ([]Question, error) {
	var envelope feedEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("question feed is not valid json: %w", err)
	}
	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return nil, fmt.Errorf("question feed returned error %s", envelope.Error)
	}

	questions := make([]Question, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		q := Question{
			QuestionID:  item.Question.ID.String(),
			Title:       CleanTitle(item.Question.Title),
			Description: item.Question.Excerpt,
			URL:         item.Question.URL,
			Views:       item.Question.Views,
			Answers:     item.Question.Answers,
			Followers:   item.Question.Followers,
			AuthorName:  item.Question.Author.Name,
		}
		q.Hot = HotScore(q.Views, q.Answers, q.Followers)
		questions = append(questions, q)
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Hot > questions[j].Hot })
	return questions, nil
}
