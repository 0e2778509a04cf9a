// Package validator validates request structs with
// github.com/go-playground/validator/v10 and reports failures as
// field-keyed messages.
//
//	type RegisterInput struct {
//		Email    string `json:"email" validate:"required,email"`
//		Password string `json:"password" validate:"required,min=8"`
//	}
//
//	if err := validator.Struct(in); err != nil {
//		var verrs validator.ValidationErrors
//		if errors.As(err, &verrs) {
//			return verrs.Fields() // {"email": ["The email field is required."]}
//		}
//	}
//
// Field names come from the json tag. Each [ValidationError] carries a
// translation key ("validation.<tag>") and values so messages can be
// localized with [ValidationErrors.Translate].
package validator
