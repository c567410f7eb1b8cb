package validator

import (
	"errors"
	"fmt"
	"strings"

	eventserrors "gather/internal/events/errors"
	"gather/pkg/logger"
	"gather/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// transitions lists every legal event status change. Cancelled is terminal.
var transitions = map[model.EventStatus][]model.EventStatus{
	model.EventDraft:     {model.EventPublished, model.EventCancelled},
	model.EventPublished: {model.EventCancelled},
}

type EventValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewEventValidator(log *logger.Logger) *EventValidator {
	v := validator.New()

	if err := v.RegisterValidation("event_status", validateEventStatus); err != nil {
		log.Fatal("Failed to register 'event_status' validator",
			"error", err,
		)
	}

	log.Info("Event validator initialized successfully")

	return &EventValidator{
		validate: v,
		logger:   log,
	}
}

func validateEventStatus(fl validator.FieldLevel) bool {
	switch model.EventStatus(fl.Field().String()) {
	case model.EventDraft, model.EventPublished, model.EventCancelled:
		return true
	}
	return false
}

func (v *EventValidator) Validate(event *model.Event) error {
	if err := v.validate.Struct(event); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if event.EndTime != nil && event.EndTime.Before(event.StartTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time cannot be before start_time",
			},
		}
	}

	return nil
}

func (v *EventValidator) ValidateUpdate(update *model.EventUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.EndTime != nil && update.ClearEndTime {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time and clear_end_time cannot be combined",
			},
		}
	}

	return nil
}

// ValidateTransition returns an error wrapping ErrInvalidTransition unless
// from -> to is listed in the event lifecycle.
func (v *EventValidator) ValidateTransition(from, to model.EventStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", eventserrors.ErrInvalidTransition, from, to)
}

func CanTransition(from, to model.EventStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (v *EventValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "event_status":
			message = fmt.Sprintf("%s must be one of: draft published cancelled", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
