package domain

import "testing"

func TestExtractSourceID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.facebook.com/groups/ProjectAmazon", "ProjectAmazon"},
		{"https://www.facebook.com/groups/187743251645949/", "187743251645949"},
		{"https://m.facebook.com/groups/devjobs/permalink/123", "devjobs"},
		{"ProjectAmazon", "ProjectAmazon"},
		{"  187743251645949 ", "187743251645949"},
		{"https://www.facebook.com/groups/", "https://www.facebook.com/groups/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExtractSourceID(tt.in); got != tt.want {
				t.Errorf("ExtractSourceID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSourceInputNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     SourceInput
		want   SourceInput
		wantOK bool
	}{
		{
			name:   "facebook url defaults",
			in:     SourceInput{SourceID: "https://www.facebook.com/groups/ProjectAmazon"},
			want:   SourceInput{SourceID: "ProjectAmazon", Name: "ProjectAmazon", Provider: ProviderFacebook},
			wantOK: true,
		},
		{
			name:   "rss keeps url",
			in:     SourceInput{SourceID: "https://example.com/jobs.xml", Name: "Example", Provider: "RSS"},
			want:   SourceInput{SourceID: "https://example.com/jobs.xml", Name: "Example", Provider: ProviderRSS},
			wantOK: true,
		},
		{
			name:   "missing id",
			in:     SourceInput{Name: "x"},
			wantOK: false,
		},
		{
			name:   "unknown provider",
			in:     SourceInput{SourceID: "x", Provider: "myspace"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Normalize()
			if ok != tt.wantOK {
				t.Fatalf("Normalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
