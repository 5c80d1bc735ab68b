package service

import (
	"context"
	"errors"
	"strings"
	"time"

	counselormodels "counseling-platform/backend/counselor/models"
	convmodels "counseling-platform/backend/conversation/models"
	"counseling-platform/backend/matching/keywords"
	"counseling-platform/backend/matching/models"
	"counseling-platform/backend/matching/repository"
	apperrors "counseling-platform/backend/pkg/errors"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/observability"

	"gorm.io/gorm"
)

// CounselorDirectory is the read-only roster consulted during matching
type CounselorDirectory interface {
	ListApproved() ([]counselormodels.Counselor, error)
	GetByID(id uint) (*counselormodels.Counselor, error)
}

// GreetingSender persists the post-match greeting and pushes it down
// the same delivery path as live chat. Persistence is authoritative;
// delivery is best-effort.
type GreetingSender interface {
	Deliver(ctx context.Context, message *convmodels.ConversationMessage) error
}

// TextRecognizer is the OCR collaborator; it backfills recognized text
// for attachments submitted without it
type TextRecognizer interface {
	Recognize(ctx context.Context, imageURL string) (string, error)
}

// MatchingService owns the intake request lifecycle: submission,
// the PENDING -> MATCHED transition, and the post-match greeting.
type MatchingService struct {
	requests         repository.RequestRepository
	directory        CounselorDirectory
	greetings        GreetingSender
	extractor        *keywords.Extractor
	engine           *Engine
	recognizer       TextRecognizer
	greetingFallback string
	log              *logger.Logger
}

func NewMatchingService(
	requests repository.RequestRepository,
	directory CounselorDirectory,
	greetings GreetingSender,
	extractor *keywords.Extractor,
	recognizer TextRecognizer,
	greetingFallback string,
	log *logger.Logger,
) *MatchingService {
	return &MatchingService{
		requests:         requests,
		directory:        directory,
		greetings:        greetings,
		extractor:        extractor,
		engine:           NewEngine(),
		recognizer:       recognizer,
		greetingFallback: greetingFallback,
		log:              log.WithComponent("matching"),
	}
}

// SubmitRequest validates and persists a new intake request in PENDING
// state, returning its assigned id
func (s *MatchingService) SubmitRequest(ctx context.Context, submit *models.SubmitRequest) (uint, error) {
	if submit.UserID == 0 {
		return 0, apperrors.NewValidationError("user_id is required")
	}
	if strings.TrimSpace(submit.ProblemDescription) == "" {
		return 0, apperrors.NewValidationError("problem_description is required")
	}

	attachments := make(models.AttachmentList, 0, len(submit.AttachedImages))
	for _, attachment := range submit.AttachedImages {
		if attachment.RecognizedText == "" && attachment.URL != "" && s.recognizer != nil {
			text, err := s.recognizer.Recognize(ctx, attachment.URL)
			if err != nil {
				// Recognition is best-effort; the attachment still counts
				s.log.Warn("OCR recognition failed", "url", attachment.URL, "error", err.Error())
			} else {
				attachment.RecognizedText = text
			}
		}
		attachments = append(attachments, attachment)
	}

	request := &models.IntakeRequest{
		UserID:             submit.UserID,
		ProblemDescription: submit.ProblemDescription,
		ProblemDuration:    submit.ProblemDuration,
		PreferredMethod:    submit.PreferredMethod,
		AttachedImages:     attachments,
		Status:             models.StatusPending,
		CreatedTime:        time.Now().UTC(),
	}

	if err := s.requests.Create(request); err != nil {
		return 0, err
	}

	s.log.Info("Intake request submitted", "request_id", request.ID, "user_id", request.UserID)
	return request.ID, nil
}

// AttemptMatch runs the matching transition for a PENDING request.
// It returns false without error when no counselor can be matched, a
// normal reportable outcome. The transition itself is a conditional
// update on status=PENDING so concurrent attempts produce exactly one
// MATCHED transition and one greeting.
func (s *MatchingService) AttemptMatch(ctx context.Context, requestID uint) (bool, error) {
	request, err := s.requests.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.NewRequestNotFoundError(requestID)
		}
		return false, err
	}

	blocks := append([]string{request.ProblemDescription}, request.AttachedImages.RecognizedTexts()...)
	tags := s.extractor.Extract(blocks...)
	if len(tags) == 0 {
		s.log.Warn("No topic tags extracted from request", "request_id", requestID)
		observability.MatchAttempts.WithLabelValues("unmatched").Inc()
		return false, nil
	}

	counselors, err := s.directory.ListApproved()
	if err != nil {
		observability.MatchAttempts.WithLabelValues("error").Inc()
		return false, err
	}

	counselor, ok := s.engine.Match(tags, counselors)
	if !ok {
		s.log.Warn("No counselor matched request", "request_id", requestID, "tags", tags)
		observability.MatchAttempts.WithLabelValues("unmatched").Inc()
		return false, nil
	}

	matched, err := s.requests.MarkMatched(requestID, counselor.ID, time.Now().UTC())
	if err != nil {
		observability.MatchAttempts.WithLabelValues("error").Inc()
		return false, err
	}
	if !matched {
		// A concurrent attempt won the transition
		s.log.Info("Request already matched", "request_id", requestID)
		observability.MatchAttempts.WithLabelValues("unmatched").Inc()
		return false, nil
	}

	s.log.Info("Request matched",
		"request_id", requestID,
		"counselor_id", counselor.ID,
		"tags", tags,
	)
	observability.MatchAttempts.WithLabelValues("matched").Inc()

	// The match is final once persisted; a greeting failure is logged
	// and does not roll it back
	s.sendGreeting(ctx, request.UserID, counselor)

	return true, nil
}

// MatchedCounselorIDs returns the distinct counselor ids across all
// MATCHED requests for a requester
func (s *MatchingService) MatchedCounselorIDs(userID uint) ([]uint, error) {
	requests, err := s.requests.ListMatchedByUser(userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(requests))
	ids := make([]uint, 0, len(requests))
	for _, request := range requests {
		if request.MatchedCounselorID == nil {
			continue
		}
		id := *request.MatchedCounselorID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// MatchedCounselors resolves the matched counselor ids to profiles,
// skipping ids the directory can no longer resolve
func (s *MatchingService) MatchedCounselors(userID uint) ([]counselormodels.Counselor, error) {
	ids, err := s.MatchedCounselorIDs(userID)
	if err != nil {
		return nil, err
	}

	counselors := make([]counselormodels.Counselor, 0, len(ids))
	for _, id := range ids {
		counselor, err := s.directory.GetByID(id)
		if err != nil {
			s.log.Warn("Matched counselor no longer resolvable", "counselor_id", id)
			continue
		}
		counselors = append(counselors, *counselor)
	}
	return counselors, nil
}

func (s *MatchingService) sendGreeting(ctx context.Context, userID uint, counselor *counselormodels.Counselor) {
	var content strings.Builder
	content.WriteString("你好！我是")
	content.WriteString(counselor.DisplayName())
	content.WriteString("。 ")
	if strings.TrimSpace(counselor.Introduction) != "" {
		content.WriteString(counselor.Introduction)
	} else {
		content.WriteString(s.greetingFallback)
	}

	message := &convmodels.ConversationMessage{
		UserID:           userID,
		CounselorID:      counselor.ID,
		SenderType:       convmodels.SenderCounselor,
		MessageType:      convmodels.TypeText,
		Content:          content.String(),
		ReadStatus:       false,
		ConversationType: convmodels.PhasePreConsultation,
	}

	if err := s.greetings.Deliver(ctx, message); err != nil {
		s.log.Error("Failed to send greeting message",
			"user_id", userID,
			"counselor_id", counselor.ID,
			"error", err.Error(),
		)
		return
	}

	observability.GreetingsSent.Inc()
	s.log.Info("Greeting message sent", "user_id", userID, "counselor_id", counselor.ID)
}
