// Package service runs the task tracker's use cases. Every operation asks
// the access policy first, then performs its reads and writes against the
// store inside one transaction, and reports failures as apperror values.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"taskflow/internal/apperror"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// Publisher receives events after the transaction that produced them has
// committed.
type Publisher interface {
	Publish(models.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var fieldLabels = map[string]string{
	"title":    "Title",
	"status":   "Status",
	"priority": "Priority",
	"content":  "Comment content",
	"name":     "Name",
	"email":    "Email",
	"password": "Password",
	"role":     "Role",
}

// check validates in and turns the first failure into an InvalidInput error.
func check(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Internal("validate input", err)
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "notblank":
		return apperror.InvalidInput(label + " is required")
	case "oneof":
		return apperror.InvalidInput("Invalid " + strings.ToLower(label))
	case "email":
		return apperror.InvalidInput("Invalid email address")
	case "min":
		return apperror.InvalidInput(fmt.Sprintf("%s must be at least %s characters", label, fe.Param()))
	default:
		return apperror.InvalidInput(label + " is invalid")
	}
}

// storeError translates repository sentinels. notFound is the message used
// when the row is missing or outside the caller's scope.
func storeError(err error, notFound string) error {
	var appErr *apperror.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(notFound)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperror.InvalidInput("Referenced user does not exist")
	case errors.Is(err, repository.ErrConflict):
		return apperror.Conflict("Resource already exists")
	default:
		return apperror.Internal("store operation failed", err)
	}
}

var (
	errAdminOnly    = apperror.Forbidden("Access denied. Admin only.")
	errAccessDenied = apperror.Forbidden("Access denied")
)
