package foodlog

import (
	"context"

	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/recognition"
)

// StartRecognition opens a voice or photo attempt.
func (s *Service) StartRecognition(kind string) (*recognition.Snapshot, error) {
	k, err := recognition.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	a, err := s.recognition.Start(k)
	if err != nil {
		return nil, err
	}
	snap := a.Snapshot()
	return &snap, nil
}

// Recognition returns the attempt state.
func (s *Service) Recognition(id string) (*recognition.Snapshot, error) {
	a, err := s.recognition.Get(id)
	if err != nil {
		return nil, err
	}
	snap := a.Snapshot()
	return &snap, nil
}

// SubmitCapture ends capturing and starts processing.
func (s *Service) SubmitCapture(id string, capture []byte, ext string) (*recognition.Snapshot, error) {
	a, err := s.recognition.Submit(id, capture, ext)
	if err != nil {
		return nil, err
	}
	snap := a.Snapshot()
	return &snap, nil
}

// RecognitionCapture returns the stored photo of an attempt and its path.
func (s *Service) RecognitionCapture(id string) ([]byte, string, error) {
	return s.recognition.Capture(id)
}

// CancelRecognition returns the attempt to idle.
func (s *Service) CancelRecognition(id string) (*recognition.Snapshot, error) {
	a, err := s.recognition.Cancel(id)
	if err != nil {
		return nil, err
	}
	snap := a.Snapshot()
	return &snap, nil
}

// RetryRecognition starts capturing again on an idle attempt.
func (s *Service) RetryRecognition(id string) (*recognition.Snapshot, error) {
	a, err := s.recognition.Restart(id)
	if err != nil {
		return nil, err
	}
	snap := a.Snapshot()
	return &snap, nil
}

// AcceptRecognition logs the ready result, optionally edited.
func (s *Service) AcceptRecognition(ctx context.Context, id, date string, slot models.MealSlot, edit *recognition.Result) (*models.LoggedEntry, error) {
	return s.recognition.Accept(ctx, id, s.committer, date, slot, edit)
}

// DiscardRecognition forgets the attempt.
func (s *Service) DiscardRecognition(id string) error {
	if _, err := s.recognition.Get(id); err != nil {
		return err
	}
	s.recognition.Discard(id)
	return nil
}
