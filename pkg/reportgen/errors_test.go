package reportgen

import (
	"errors"
	"testing"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "TemplateError with key",
			err:     &TemplateError{Message: "no open block for finish tag", Key: "items"},
			wantMsg: "template error near <items>: no open block for finish tag",
		},
		{
			name:    "TemplateError without key",
			err:     &TemplateError{Message: "broken"},
			wantMsg: "template error: broken",
		},
		{
			name:    "PropertyError",
			err:     &PropertyError{Key: "total", Message: "column not found"},
			wantMsg: "property error for tag <total>: column not found",
		},
		{
			name:    "DocumentError",
			err:     &DocumentError{Operation: "save", Path: "output.docx", Cause: errors.New("permission denied")},
			wantMsg: "cannot save output.docx: permission denied",
		},
		{
			name:    "DocumentError without path",
			err:     &DocumentError{Operation: "unpack", Cause: errors.New("zip: not a valid zip file")},
			wantMsg: "cannot unpack: zip: not a valid zip file",
		},
		{
			name:    "DocumentError without cause",
			err:     &DocumentError{Operation: "open", Path: "a.docx"},
			wantMsg: "cannot open a.docx",
		},
		{
			name:    "DocumentError for a part",
			err:     NewPartError("pack", "word/_rels/document.xml.rels", errors.New("bad xml")),
			wantMsg: "cannot pack (part word/_rels/document.xml.rels): bad xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	wrapped := WithContext(NewTemplateError("bad", "x"), "generate", map[string]interface{}{"part": "body"})
	if !IsTemplateError(wrapped) {
		t.Error("IsTemplateError should see through ContextError")
	}
	if IsPropertyError(wrapped) {
		t.Error("IsPropertyError should be false for a template error")
	}

	doc := NewDocumentError("read", "t.docx", errors.New("boom"))
	if !IsDocumentError(doc) {
		t.Error("IsDocumentError should be true")
	}

	multi := NewMultiError()
	multi.Add(errors.New("first"))
	multi.Add(NewPropertyError("k", "bad"))
	if !IsPropertyError(multi.Err()) {
		t.Error("IsPropertyError should see into MultiError")
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := errors.New("base error")
	docErr := NewDocumentError("write", "", baseErr)

	if unwrapped := errors.Unwrap(docErr); unwrapped != baseErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, baseErr)
	}
	if !errors.Is(docErr, baseErr) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestErrorRecovery(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{"test panic", "generation panicked: test panic"},
		{errors.New("err panic"), "generation panicked: err panic"},
		{42, "generation panicked: 42"},
	}
	for _, tt := range tests {
		if got := RecoverError(tt.value).Error(); got != tt.want {
			t.Errorf("RecoverError(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestErrorContext(t *testing.T) {
	baseErr := errors.New("file not found")

	contextErr := WithContext(baseErr, "generate", map[string]interface{}{
		"part": "word/document.xml",
		"row":  3,
	})

	want := "generate (part=word/document.xml row=3): file not found"
	if contextErr.Error() != want {
		t.Errorf("Error() = %q, want %q", contextErr.Error(), want)
	}

	if WithContext(nil, "generate", nil) != nil {
		t.Error("WithContext(nil) should return nil")
	}
}

func TestMultiError(t *testing.T) {
	multi := NewMultiError()

	multi.Add(errors.New("error 1"))
	multi.Add(errors.New("error 2"))
	multi.Add(nil)
	multi.Add(errors.New("error 3"))

	if multi.Len() != 3 {
		t.Errorf("MultiError.Len() = %d, want 3", multi.Len())
	}

	msg := multi.Err().Error()
	if msg != "3 errors: error 1; error 2; error 3" {
		t.Errorf("unexpected message %q", msg)
	}

	single := NewMultiError()
	single.Add(errors.New("only"))
	if single.Err().Error() != "only" {
		t.Errorf("single error should be returned as is, got %q", single.Err())
	}

	if NewMultiError().Err() != nil {
		t.Error("MultiError.Err() should return nil for empty errors")
	}
}
