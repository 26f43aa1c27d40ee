package services

import (
	"context"

	"bricpa/internal/advisory"
	"bricpa/internal/domain"
	"bricpa/internal/repos"
	"bricpa/internal/validate"
)

type AssistantService struct {
	Chat    *repos.ChatRepo
	Advisor *advisory.Advisor
}

func NewAssistantService(chat *repos.ChatRepo, adv *advisory.Advisor) *AssistantService {
	return &AssistantService{Chat: chat, Advisor: adv}
}

// Ask stores the question and the answer in the session's history. A failed
// answer is stored with OK=false and the failure reason as its content.
func (s *AssistantService) Ask(ctx context.Context, sid, question string) (domain.ChatMessage, error) {
	q, ok := validate.Question(question)
	if !ok {
		ve := &domain.ValidationError{}
		ve.Add("question", "ask a question (2000 characters max)")
		return domain.ChatMessage{}, ve
	}
	if _, err := s.Chat.Append(sid, domain.ChatUser, q, true); err != nil {
		return domain.ChatMessage{}, err
	}
	res := s.Advisor.AnswerQuestion(ctx, q)
	content := res.Text
	if !res.OK {
		content = res.Reason
	}
	return s.Chat.Append(sid, domain.ChatAssistant, content, res.OK)
}

func (s *AssistantService) History(sid string) ([]domain.ChatMessage, error) {
	return s.Chat.History(sid)
}

// Reset starts a new conversation.
func (s *AssistantService) Reset(sid string) error { return s.Chat.Clear(sid) }
