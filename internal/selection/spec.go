package selection

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"reelcut/internal/services"
)

// DefaultHookType labels clips whose hook was not classified.
const DefaultHookType = "general"

// Spec is one selected clip span in source seconds.
type Spec struct {
	Start    float64 `json:"start" validate:"gte=0"`
	End      float64 `json:"end" validate:"gtfield=Start"`
	Title    string  `json:"title" validate:"max=200"`
	Score    float64 `json:"virality_score" validate:"gte=0,lte=100"`
	HookType string  `json:"hook_type" validate:"max=64"`
	Reason   string  `json:"reason,omitempty"`
}

// Duration returns the clip length in seconds.
func (s Spec) Duration() float64 {
	return s.End - s.Start
}

// Points returns the score rounded for display and file names.
func (s Spec) Points() int {
	return int(math.Round(s.Score))
}

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
})

// Validate checks s against its struct tags. Failures wrap
// services.ErrValidation and name the offending JSON fields.
func Validate(s Spec) error {
	err := validate().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return services.Wrap(services.ErrValidation, "selection", "validate clip", "invalid clip", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fe.Field()+" "+describe(fe))
	}
	return services.Wrap(services.ErrValidation, "selection", "validate clip", strings.Join(messages, "; "), nil)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gtfield":
		return "must be greater than start"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// normalize fills display defaults.
func (s Spec) normalize(fallbackTitle string) Spec {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = fallbackTitle
	}
	s.HookType = strings.TrimSpace(s.HookType)
	if s.HookType == "" {
		s.HookType = DefaultHookType
	}
	s.Reason = strings.TrimSpace(s.Reason)
	return s
}
