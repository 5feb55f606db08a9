package forms_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/murmur/internal/forms"
)

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestValidator_SignUp(t *testing.T) {
	v := forms.NewValidator()

	tests := []struct {
		name   string
		values url.Values
		want   map[string]string
	}{
		{
			name:   "valid",
			values: url.Values{"username": {"alice"}, "email": {" A@X.com "}, "password": {"pw123456"}},
		},
		{
			name:   "missing fields",
			values: url.Values{},
			want: map[string]string{
				"username": "This field is required.",
				"email":    "This field is required.",
				"password": "This field is required.",
			},
		},
		{
			name:   "short username and password",
			values: url.Values{"username": {"a"}, "email": {"a@x.com"}, "password": {"short"}},
			want: map[string]string{
				"username": "Must contain at least 2 characters.",
				"password": "Must contain at least 8 characters.",
			},
		},
		{
			name:   "long username",
			values: url.Values{"username": {strings.Repeat("x", 51)}, "email": {"a@x.com"}, "password": {"pw123456"}},
			want:   map[string]string{"username": "Must contain at most 50 characters."},
		},
		{
			name:   "malformed email",
			values: url.Values{"username": {"alice"}, "email": {"not-an-email"}, "password": {"pw123456"}},
			want:   map[string]string{"email": "Invalid email address."},
		},
		{
			name:   "whitespace username",
			values: url.Values{"username": {"   "}, "email": {"a@x.com"}, "password": {"pw123456"}},
			want:   map[string]string{"username": "This field is required."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f forms.SignUpForm
			errs := v.Decode(postForm(tt.values), &f)
			if tt.want == nil {
				require.Nil(t, errs)
				assert.Equal(t, "a@x.com", f.Email)
				return
			}
			require.NotNil(t, errs)
			assert.Len(t, errs, len(tt.want))
			for field, msg := range tt.want {
				assert.Equal(t, msg, errs.Get(field), field)
			}
		})
	}
}

func TestValidator_SignIn(t *testing.T) {
	v := forms.NewValidator()

	var f forms.SignInForm
	require.Nil(t, v.Decode(postForm(url.Values{"username": {" alice "}, "password": {"wrong"}}), &f))
	assert.Equal(t, "alice", f.Username)
	assert.Equal(t, "wrong", f.Password, "sign-in does not enforce the sign-up password policy")

	errs := v.Decode(postForm(url.Values{"username": {"alice"}}), &forms.SignInForm{})
	assert.Equal(t, "This field is required.", errs.Get("password"))
}

func TestValidator_Post(t *testing.T) {
	v := forms.NewValidator()

	var f forms.PostForm
	require.Nil(t, v.Decode(postForm(url.Values{"textContent": {"  hello world  "}}), &f))
	assert.Equal(t, "hello world", f.TextContent)

	errs := v.Decode(postForm(url.Values{"textContent": {"   "}}), &forms.PostForm{})
	assert.Equal(t, "This field is required.", errs.Get("textContent"))

	errs = v.Decode(postForm(url.Values{"textContent": {strings.Repeat("é", 281)}}), &forms.PostForm{})
	assert.Equal(t, "Must contain at most 280 characters.", errs.Get("textContent"))

	require.Nil(t, v.Decode(postForm(url.Values{"textContent": {strings.Repeat("é", 280)}}), &forms.PostForm{}))
}

func TestErrors(t *testing.T) {
	errs := forms.FieldError("password", "Incorrect username or password.")
	errs.Add("username", "Too short.")

	var err error = errs
	var target forms.Errors
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "Incorrect username or password.", target.Get("password"))
	assert.Empty(t, target.Get("email"))
	assert.Equal(t, "invalid form: password: Incorrect username or password.; username: Too short.", err.Error())
}
