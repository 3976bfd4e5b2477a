package board

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	models "io.winapps.memorialboard/internal/models/board"
)

// Surface identifies the form a submission came from.
type Surface string

const (
	// SurfaceModal is the in-page dialog. The section comes from the page and
	// email is only checked when the dialog collects it.
	SurfaceModal Surface = "modal"
	// SurfacePage is the standalone submission page, which always collects
	// email and a section.
	SurfacePage Surface = "page"
)

// ParseSurface returns the surface named s, defaulting to the modal.
func ParseSurface(s string) Surface {
	if Surface(strings.TrimSpace(s)) == SurfacePage {
		return SurfacePage
	}
	return SurfaceModal
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s looks like an address: non-whitespace local
// part, "@", and a non-whitespace domain containing a dot.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

type modalFields struct {
	Author  string `json:"author" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type modalEmailFields struct {
	Author  string `json:"author" validate:"required"`
	Email   string `json:"email" validate:"required,board_email"`
	Content string `json:"content" validate:"required"`
}

type pageFields struct {
	Author  string `json:"author" validate:"required"`
	Email   string `json:"email" validate:"required,board_email"`
	Section string `json:"section" validate:"required,board_section"`
	Content string `json:"content" validate:"required"`
}

var messages = map[Surface]map[string]string{
	SurfaceModal: {
		"author.required":       "Please enter a name",
		"email.required":        "Please enter your email",
		"email.board_email":     "Please enter a valid email",
		"content.required":      "Please write something",
		"section.required":      "Please choose a section",
		"section.board_section": "Please choose a section",
	},
	SurfacePage: {
		"author.required":       "Please enter your name",
		"email.required":        "Please enter your email",
		"email.board_email":     "Please enter a valid email",
		"section.required":      "Please choose a section",
		"section.board_section": "Please choose a section",
		"content.required":      "Please add your entry",
	},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("board_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("board_section", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseSection(fl.Field().String())
		return ok
	})
	return v
}

// validateInput checks the required fields of in for its surface. in must
// already be trimmed.
func (s *Service) validateInput(in SubmitInput) error {
	var target any
	switch {
	case in.Surface == SurfacePage:
		target = pageFields{Author: in.Author, Email: in.Email, Section: in.Section, Content: in.Content}
	case in.CollectsEmail:
		target = modalEmailFields{Author: in.Author, Email: in.Email, Content: in.Content}
	default:
		target = modalFields{Author: in.Author, Content: in.Content}
	}

	err := s.validate.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	surfaceMessages := messages[in.Surface]
	if surfaceMessages == nil {
		surfaceMessages = messages[SurfaceModal]
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		msg, ok := surfaceMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}
