package echoapi

import (
	"github.com/trezcool/shule/core"
)

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next" form:"next"`
}

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)

	if err := core.Validate.Struct(lr); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

type PasswordResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (prr *PasswordResetRequest) Validate() error {
	prr.Email = core.CleanString(prr.Email, true /* lower */)

	if err := core.Validate.Struct(prr); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}
