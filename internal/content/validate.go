package content

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// FieldError is a validation problem with one field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports invalid request input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Error
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldMap returns field -> message.
func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// SelectionRequest asks for the next selection of a screen's view.
type SelectionRequest struct {
	Current  []string `json:"current"`
	PageKeys []string `json:"page_keys"`
	Action   string   `json:"action" validate:"required,oneof=toggle select_page deselect_page clear"`
	Key      string   `json:"key" validate:"required_if=Action toggle"`
}

// ActionRequest is a row or toolbar action posted by a client.
type ActionRequest struct {
	Action string          `json:"action" validate:"required,max=64,alphanum_"`
	Key    string          `json:"key" validate:"max=128"`
	Keys   []string        `json:"keys" validate:"max=1000,dive,required,max=128"`
	Row    dataview.Record `json:"row"`
	Fields map[string]any  `json:"fields"`
}

// Command converts the request into a command for screen.
func (r ActionRequest) Command(screen string) Command {
	cmd := NewCommand(ActionTag(r.Action), screen)
	cmd.Key = r.Key
	cmd.Keys = r.Keys
	cmd.Row = r.Row
	cmd.Fields = r.Fields
	return cmd
}

const (
	alphaNumUnderTag  = "alphanum_"
	alphaNumUnderText = "{0} may only contain letters, digits and underscores"
	dateTag           = "date"
	dateText          = "{0} must be a date such as 2024-09-01"
	requiredText      = "{0} is required"
)

// Validator checks request structs and screen field values, producing
// English messages keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator builds a validator with English translations and the custom
// tags used by screen field rules.
func NewValidator() *Validator {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnder)
	_ = validate.RegisterValidation(dateTag, isDate)

	v := &Validator{validate: validate, trans: trans}
	v.translation(alphaNumUnderTag, alphaNumUnderText, false)
	v.translation(dateTag, dateText, false)
	v.translation("required", requiredText, true)
	v.translation("required_if", requiredText, true)
	return v
}

func (v *Validator) translation(tag, text string, override bool) {
	_ = v.validate.RegisterTranslation(
		tag, v.trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func alphaNumUnder(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func isDate(fl validator.FieldLevel) bool {
	_, ok := dataview.ToTime(fl.Field().Interface())
	return ok
}

// Struct validates a request struct.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Error: fe.Translate(v.trans)})
	}
	return out
}

// Fields validates values against the screen's writable fields and returns
// the accepted subset. Unknown fields are rejected. With partial set, only
// fields present in values are checked, as for an edit.
func (v *Validator) Fields(s Screen, values map[string]any, partial bool) (map[string]any, error) {
	out := make(map[string]any, len(values))
	verr := &ValidationError{}

	for name := range values {
		if _, ok := s.Field(name); !ok {
			verr.Fields = append(verr.Fields, FieldError{Field: name, Error: "unknown field"})
		}
	}

	for _, f := range s.Fields {
		val, present := values[f.Name]
		if !present && partial {
			continue
		}
		if msg := v.checkField(f, val); msg != "" {
			verr.Fields = append(verr.Fields, FieldError{Field: f.Name, Error: msg})
			continue
		}
		if present {
			out[f.Name] = val
		}
	}

	if len(verr.Fields) > 0 {
		sort.Slice(verr.Fields, func(i, j int) bool { return verr.Fields[i].Field < verr.Fields[j].Field })
		return nil, verr
	}
	if len(out) == 0 {
		return nil, &ValidationError{Fields: []FieldError{{Field: "fields", Error: "no fields to write"}}}
	}
	return out, nil
}

func (v *Validator) checkField(f FieldSpec, val any) string {
	if f.Rules == "" {
		return ""
	}
	err := v.validate.Var(val, f.Rules)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	label := f.Label
	if label == "" {
		label = f.Name
	}
	// Var has no field name, so the translation starts with a blank.
	return fmt.Sprintf("%s %s", label, strings.TrimSpace(verrs[0].Translate(v.trans)))
}
