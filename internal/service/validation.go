package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/go-playground/validator/v10"
)

// ImageUpload is an image as received from the client.
type ImageUpload struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// ContactFields are the user-editable attributes of a contact.
type ContactFields struct {
	FirstName string       `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string       `json:"lastName" validate:"required,min=2,max=50"`
	BirthDate *time.Time   `json:"birthDate,omitempty"`
	Address1  string       `json:"address1" validate:"required,max=100"`
	Address2  string       `json:"address2" validate:"max=100"`
	City      string       `json:"city" validate:"required,max=50"`
	State     string       `json:"state" validate:"required,state"`
	ZipCode   string       `json:"zipCode" validate:"required,max=10"`
	Email     string       `json:"email" validate:"required,email"`
	Phone     string       `json:"phone" validate:"omitempty,max=20"`
	Image     *ImageUpload `json:"image,omitempty"`
}

// CreateInput is the payload of Directory.Create. The owner is never part of it.
type CreateInput struct {
	ContactFields
	CategoryIDs []int64 `json:"categoryIds"`
}

// EditInput is the payload of Directory.Edit. OwnerID, Created and Version
// are round-tripped from a previous read.
type EditInput struct {
	ContactFields
	OwnerID string    `json:"ownerId" validate:"required"`
	Created time.Time `json:"created"`
	Version int64     `json:"version" validate:"required,min=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("state", func(fl validator.FieldLevel) bool {
		return models.IsValidState(fl.Field().String())
	})
	return v
}

// validateStruct runs the tag rules and folds failures into a *ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// normalize trims the name fields so the length rules see what gets stored.
func (f *ContactFields) normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
}

func (f ContactFields) toContact() models.Contact {
	return models.Contact{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		BirthDate: asUTC(f.BirthDate),
		Address1:  f.Address1,
		Address2:  f.Address2,
		City:      f.City,
		State:     f.State,
		ZipCode:   f.ZipCode,
		Email:     f.Email,
		Phone:     f.Phone,
	}
}

// asUTC re-tags t as UTC keeping its wall clock, so the calendar date the
// user typed is what gets stored.
func asUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return &u
}
