package shared

import (
	"errors"
	"testing"
)

func TestExtractQueryParam(t *testing.T) {
	tt := []struct {
		name   string
		rawURL string
		param  string
		want   string
		wantOK bool
	}{
		{
			name:   "code with extra params",
			rawURL: "upl://callback?code=ABC123&state=xyz",
			param:  "code",
			want:   "ABC123",
			wantOK: true,
		},
		{
			name:   "code after other params",
			rawURL: "upl://callback?state=xyz&code=ABC123",
			param:  "code",
			want:   "ABC123",
			wantOK: true,
		},
		{
			name:   "error param",
			rawURL: "upl://callback?error=access_denied",
			param:  "error",
			want:   "access_denied",
			wantOK: true,
		},
		{
			name:   "missing param",
			rawURL: "upl://callback?error=access_denied",
			param:  "code",
			wantOK: false,
		},
		{
			name:   "empty value",
			rawURL: "upl://callback?code=&state=1",
			param:  "code",
			wantOK: false,
		},
		{
			name:   "percent encoded value",
			rawURL: "upl://callback?code=a%2Fb%3D",
			param:  "code",
			want:   "a/b=",
			wantOK: true,
		},
		{
			name:   "fragment terminated",
			rawURL: "upl://callback?code=XYZ#_=_",
			param:  "code",
			want:   "XYZ",
			wantOK: true,
		},
		{
			name:   "malformed URI still parsed",
			rawURL: "upl:/ /callback %%?code=LOOSE",
			param:  "code",
			want:   "LOOSE",
			wantOK: true,
		},
		{
			name:   "name is a suffix of another param",
			rawURL: "upl://callback?xcode=nope",
			param:  "code",
			wantOK: false,
		},
		{
			name:   "bad escape",
			rawURL: "upl://callback?code=%zz",
			param:  "code",
			wantOK: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractQueryParam(tc.rawURL, tc.param)
			if ok != tc.wantOK {
				t.Fatalf("ExtractQueryParam() ok = %v, want %v", ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("ExtractQueryParam() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateParamValue(t *testing.T) {
	t.Run("accepts url safe values", func(t *testing.T) {
		if err := ValidateParamValue("code", "AQB-x_9.~"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("rejects whitespace and markup", func(t *testing.T) {
		for _, v := range []string{"a b", "<script>", "x\"y"} {
			err := ValidateParamValue("code", v)
			if !errors.Is(err, ErrInvalidRedirect) {
				t.Errorf("ValidateParamValue(%q) = %v, want ErrInvalidRedirect", v, err)
			}
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		if err := ValidateParamValue("code", ""); !errors.Is(err, ErrInvalidRedirect) {
			t.Errorf("expected ErrInvalidRedirect, got %v", err)
		}
	})
}
