package forms

import "strings"

// SignInForm is submitted to sign in.
type SignInForm struct {
	Username string `form:"username" validate:"required,min=2,max=50"`
	Password string `form:"password" validate:"required,max=255"`
}

// Normalize trims surrounding whitespace from the username.
func (f *SignInForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// SignUpForm is submitted to create an account.
type SignUpForm struct {
	Username string `form:"username" validate:"required,min=2,max=50"`
	Email    string `form:"email" validate:"required,max=254,email"`
	Password string `form:"password" validate:"required,min=8,max=255"`
}

// Normalize trims the username and email and lowercases the email.
func (f *SignUpForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// PostForm is submitted to publish a post.
type PostForm struct {
	TextContent string `form:"textContent" validate:"required,max=280"`
}

// Normalize trims the post text.
func (f *PostForm) Normalize() {
	f.TextContent = strings.TrimSpace(f.TextContent)
}
