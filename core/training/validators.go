package training

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ignasimgol/tfm-uoc/core"
)

var (
	activityTag  = "activity"
	activityText = "unknown activity type"
)

// InitValidators registers the session validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(activityTag, activityValidation)
	core.RegisterCustomTranslation(validate, translator, activityTag, activityText)
}

func activityValidation(fl validator.FieldLevel) bool {
	return IsActivityType(fl.Field().String())
}
