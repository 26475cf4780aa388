package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGoldmarkFormatter_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		rawHTML      bool
		wantContains []string
		wantNot      []string
	}{
		{
			name:         "paragraph",
			input:        "Hello world",
			wantContains: []string{"<p>Hello world</p>"},
			wantNot:      []string{"<!DOCTYPE html>", "<body>"},
		},
		{
			name:         "paragraph with hard breaks",
			input:        "Line one\nLine two",
			wantContains: []string{"<p>", "Line one", "<br />", "Line two"},
		},
		{
			name:         "GFM strikethrough",
			input:        "~~deleted~~",
			wantContains: []string{"<del>", "deleted", "</del>"},
		},
		{
			name:         "heading gets an id",
			input:        "# Title",
			wantContains: []string{"<h1", `id="`, "Title"},
		},
		{
			name:         "placeholder tokens pass through unchanged",
			input:        "Example " + TokenStart + "abc:0" + TokenEnd + " done",
			wantContains: []string{"<p>Example " + TokenStart + "abc:0" + TokenEnd + " done</p>"},
		},
		{
			name:         "raw HTML omitted by default",
			input:        "<script>alert('xss')</script>",
			wantNot:      []string{"<script>"},
			wantContains: []string{"raw HTML omitted"},
		},
		{
			name:         "raw HTML kept when allowed",
			input:        "a <strong>b</strong>",
			rawHTML:      true,
			wantContains: []string{"<strong>b</strong>"},
		},
		{
			name:    "empty input",
			input:   "",
			wantNot: []string{"<p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewGoldmarkFormatter(tt.rawHTML)
			got, err := f.Format(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Format() unexpected error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q in:\n%s", want, got)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(got, not) {
					t.Errorf("Format() should not contain %q in:\n%s", not, got)
				}
			}
		})
	}
}

func TestGoldmarkFormatter_ContextCancellation(t *testing.T) {
	t.Parallel()

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewGoldmarkFormatter(false).Format(ctx, "# Hello")
		if err != context.Canceled {
			t.Errorf("Format() error = %v, want %v", err, context.Canceled)
		}
	})

	t.Run("expired deadline", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := NewGoldmarkFormatter(false).Format(ctx, "# Hello")
		if err != context.DeadlineExceeded {
			t.Errorf("Format() error = %v, want %v", err, context.DeadlineExceeded)
		}
	})
}
