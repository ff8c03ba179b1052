package validate

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerForm struct {
	Username string `json:"username" binding:"required,min=3,max=150,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Confirm  string `json:"password_confirm" binding:"omitempty,eqfield=Password"`
}

func TestTranslateFieldErrors(t *testing.T) {
	Register()

	err := binding.Validator.ValidateStruct(&registerForm{
		Username: "a b",
		Email:    "nope",
		Password: "short",
		Confirm:  "other",
	})
	require.Error(t, err)

	fields, ok := Translate(err)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
	assert.Equal(t, "邮箱格式不正确", fields["email"])
	assert.Equal(t, "长度不能少于 8 个字符", fields["password"])
	assert.Equal(t, "两次输入不一致", fields["password_confirm"])
}

func TestTranslateValid(t *testing.T) {
	Register()

	err := binding.Validator.ValidateStruct(&registerForm{
		Username: "alice_01",
		Email:    "alice@example.com",
		Password: "longenough",
	})
	assert.NoError(t, err)

	_, ok := Translate(assert.AnError)
	assert.False(t, ok)
}
