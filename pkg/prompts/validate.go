package prompts

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
	"golang.org/x/text/unicode/norm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Input is a validated, normalised submission
type Input struct {
	JobPost  string
	Title    string
	Company  *string
	Position *string
}

// Validate normalises req to NFC and checks it. Blank optional fields are
// treated as absent. Failures are INVALID_REQUEST errors with field details.
func Validate(req models.ProcessPromptRequest) (Input, error) {
	req.JobPost = norm.NFC.String(req.JobPost)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Input{}, domain.NewInvalidRequestError([]domain.FieldError{{Field: "body", Message: err.Error()}})
		}
		fields := make([]domain.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError(fe))
		}
		return Input{}, domain.NewInvalidRequestError(fields)
	}

	in := Input{
		JobPost:  req.JobPost,
		Company:  optional(req.Company),
		Position: optional(req.Position),
	}
	if title := optional(req.Title); title != nil {
		in.Title = *title
	}
	return in, nil
}

func fieldError(fe validator.FieldError) domain.FieldError {
	field := fe.Field()
	if field == "JobPost" {
		field = "jobPost"
	}
	switch fe.Tag() {
	case "required", "min":
		return domain.FieldError{Field: field, Message: "Job post must be at least 10 characters"}
	default:
		return domain.FieldError{Field: field, Message: "is invalid"}
	}
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := norm.NFC.String(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}
