package client

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"taskflow/internal/models"
)

// Limits enforced before a form is sent. Lengths count characters, not
// bytes.
const (
	MaxTitleLength       = 50
	MaxDescriptionLength = 300
	MaxCommentLength     = 200
)

// FormError names the first field of a form that failed validation.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

// TaskForm is the payload for creating a task.
type TaskForm struct {
	Title        string          `json:"title" validate:"notblank,max=50"`
	Description  string          `json:"description,omitempty" validate:"max=300"`
	Priority     models.Priority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedToID *int            `json:"assignedToId,omitempty"`
}

func (f TaskForm) Validate() error {
	return checkForm(f)
}

// CommentForm is the payload for creating or editing a comment.
type CommentForm struct {
	Content string `json:"content" validate:"notblank,max=200"`
}

func (f CommentForm) Validate() error {
	return checkForm(f)
}

var formValidator = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

var formLabels = map[string]string{
	"title":       "Title",
	"description": "Description",
	"priority":    "Priority",
	"content":     "Comment",
}

func checkForm(form interface{}) error {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	label := formLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	var msg string
	switch fe.Tag() {
	case "notblank", "required":
		msg = label + " is required"
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		msg = "Invalid " + strings.ToLower(label)
	default:
		msg = label + " is invalid"
	}
	return &FormError{Field: fe.Field(), Message: msg}
}
