package validator

import (
	"errors"
	"fmt"
	"strings"

	"gather/internal/bookings/lifecycle"
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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		log.Fatal("Failed to register 'booking_status' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return lifecycle.IsKnown(model.BookingStatus(fl.Field().String()))
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateStatus rejects values outside the booking lifecycle before they
// reach the state machine.
func (v *BookingValidator) ValidateStatus(status model.BookingStatus) error {
	if err := v.validate.Var(status, "required,booking_status"); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Status",
				Message: fmt.Sprintf("Status must be one of: %s", joinStatuses()),
			},
		}
	}
	return nil
}

func joinStatuses() string {
	names := []string{
		string(model.BookingPending),
		string(model.BookingConfirmed),
		string(model.BookingPaid),
		string(model.BookingCancelled),
	}
	return strings.Join(names, " ")
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a valid phone number (e.g., +16502530000)", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), joinStatuses())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
