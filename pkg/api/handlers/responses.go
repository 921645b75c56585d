package handlers

import (
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
)

func toUsageCheck(u domain.Usage) models.UsageCheck {
	return models.UsageCheck{CanCreate: u.CanCreate, Used: u.Used, Limit: u.Limit}
}

func toUsageResponse(u domain.Usage) models.UsageResponse {
	resp := models.UsageResponse{
		PromptsUsed:     u.Used,
		PromptsLimit:    u.Limit,
		CanCreatePrompt: u.CanCreate,
	}
	if u.Limit != nil {
		remaining := u.Remaining()
		resp.Remaining = &remaining
	}
	return resp
}

func toContentResponse(gc domain.GeneratedContent) models.GeneratedContentResponse {
	return models.GeneratedContentResponse{
		ID:               gc.ID,
		PromptID:         gc.PromptID,
		UserID:           gc.UserID,
		BulletPoints:     nonNil(gc.BulletPoints),
		Skills:           nonNil(gc.Skills),
		Keywords:         nonNil(gc.Keywords),
		Achievements:     nonNil(gc.Achievements),
		Summary:          gc.Summary,
		OpenAIModel:      gc.Model,
		ProcessingTimeMS: gc.ProcessingTimeMS,
		CreatedAt:        gc.CreatedAt,
	}
}

func toPromptResponse(p domain.PromptWithContent) models.PromptResponse {
	contents := make([]models.GeneratedContentResponse, 0, len(p.Content))
	for _, gc := range p.Content {
		contents = append(contents, toContentResponse(gc))
	}
	return models.PromptResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		Title:            p.Title,
		Content:          p.Prompt.Content,
		Company:          p.Company,
		Position:         p.Position,
		Category:         p.Category,
		Status:           string(p.Status),
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		GeneratedContent: contents,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
