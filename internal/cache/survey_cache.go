package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fydbak/internal/model"
)

// SurveyCache handles Redis caching of survey definitions.
// Respondents resolve surveys by short code on every session start.
type SurveyCache interface {
	Set(ctx context.Context, survey *model.Survey) error
	Get(ctx context.Context, id string) (*model.Survey, error)
	GetByShortCode(ctx context.Context, code string) (*model.Survey, error)
	Delete(ctx context.Context, survey *model.Survey) error
}

type surveyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSurveyCache creates a new survey cache
func NewSurveyCache(client *redis.Client) SurveyCache {
	return &surveyCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *surveyCache) key(id string) string {
	return fmt.Sprintf("survey:%s", id)
}

func (c *surveyCache) codeKey(code string) string {
	return fmt.Sprintf("survey:code:%s", code)
}

func (c *surveyCache) Set(ctx context.Context, survey *model.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(survey.ID), data, c.ttl)
	pipe.Set(ctx, c.codeKey(survey.ShortCode), survey.ID, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *surveyCache) Get(ctx context.Context, id string) (*model.Survey, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var survey model.Survey
	if err := json.Unmarshal([]byte(data), &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (c *surveyCache) GetByShortCode(ctx context.Context, code string) (*model.Survey, error) {
	id, err := c.client.Get(ctx, c.codeKey(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, id)
}

func (c *surveyCache) Delete(ctx context.Context, survey *model.Survey) error {
	return c.client.Del(ctx, c.key(survey.ID), c.codeKey(survey.ShortCode)).Err()
}
