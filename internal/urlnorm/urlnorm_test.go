package urlnorm

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		opts Options
		want string
	}{
		{
			in:   "HTTP://Example.COM:80/foo/../bar/?b=2&a=1#frag",
			opts: Options{},
			want: "http://example.com/bar?a=1&b=2",
		},
		{
			in:   "https://example.com:443/index.html#section",
			opts: Options{},
			want: "https://example.com/index.html",
		},
		{
			in:   "example.com/page?utm_source=x&utm_medium=y&z=1",
			opts: Options{DefaultScheme: "https", DropTrackingParams: true},
			want: "https://example.com/page?z=1",
		},
		{
			in:   "https://例え.テスト/a",
			opts: Options{},
			want: "https://xn--r8jz45g.xn--zckzah/a",
		},
		{
			in:   "https://example.com/foo/",
			opts: Options{StripTrailingSlash: true},
			want: "https://example.com/foo",
		},
	}

	for _, tt := range tests {
		got, err := Canonicalize(tt.in, tt.opts)
		if err != nil {
			t.Fatalf("canonicalize(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	if _, err := Canonicalize("", Options{}); err != ErrEmptyURL {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}
	if _, err := Canonicalize("file:///etc/passwd", Options{}); err != ErrMissingHost {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
}
