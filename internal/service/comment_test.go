package service

import (
	"context"
	"errors"
	"testing"

	"snapfeed/internal/model"
)

func TestCommentService_Add_TextRequired(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty text", ""},
		{"whitespace only", "   \t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCommentService(nil, &mockCommentRepo{}, &mockPostRepo{}, nil)

			_, err := svc.Add(context.Background(), 1, 100, tt.text)

			if !errors.Is(err, model.ErrTextRequired) {
				t.Errorf("error = %v, want %v", err, model.ErrTextRequired)
			}
		})
	}
}

func TestCommentService_Add_PostNotFound(t *testing.T) {
	// Default mock reports the post as missing.
	svc := NewCommentService(nil, &mockCommentRepo{}, &mockPostRepo{}, nil)

	_, err := svc.Add(context.Background(), 1, 999, "hello")

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func TestCommentService_GetByPostID(t *testing.T) {
	postRepo := &mockPostRepo{
		existsFn: func(ctx context.Context, postID int64) (bool, error) {
			return postID == 100, nil
		},
	}
	commentRepo := &mockCommentRepo{
		getByPostIDFn: func(ctx context.Context, postID int64) ([]model.Comment, error) {
			return []model.Comment{{ID: 1, Text: "first"}, {ID: 2, Text: "second"}}, nil
		},
	}
	svc := NewCommentService(nil, commentRepo, postRepo, nil)

	comments, err := svc.GetByPostID(context.Background(), 100)
	if err != nil {
		t.Fatalf("GetByPostID failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(comments))
	}
	if comments[0].ID != 1 {
		t.Error("comments should be in insertion order")
	}

	_, err = svc.GetByPostID(context.Background(), 999)
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}
