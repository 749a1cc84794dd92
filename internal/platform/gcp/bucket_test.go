package gcp

import "testing"

func TestGetPublicURL(t *testing.T) {
	cases := []struct {
		name string
		bs   *bucketService
		cat  BucketCategory
		key  string
		want string
	}{
		{
			name: "gcs default",
			bs:   &bucketService{report: bucket{name: "reports"}},
			cat:  BucketCategoryReport,
			key:  "reports/2026/10/r1.pdf",
			want: "https://storage.googleapis.com/reports/reports/2026/10/r1.pdf",
		},
		{
			name: "cdn domain",
			bs:   &bucketService{asset: bucket{name: "assets", cdn: "cdn.example.com"}},
			cat:  BucketCategoryAsset,
			key:  "logos/acme.png",
			want: "https://cdn.example.com/logos/acme.png",
		},
		{
			name: "public base url",
			bs:   &bucketService{publicBase: "http://localhost:4443", report: bucket{name: "reports"}},
			cat:  BucketCategoryReport,
			key:  "/reports/r1.pdf",
			want: "http://localhost:4443/reports/reports/r1.pdf",
		},
		{
			name: "emulator media endpoint",
			bs: &bucketService{
				emulator:   "http://fake-gcs:4443",
				publicBase: "http://fake-gcs:4443",
				report:     bucket{name: "reports"},
			},
			cat:  BucketCategoryReport,
			key:  "reports/r1.pdf",
			want: "http://fake-gcs:4443/storage/v1/b/reports/o/reports%2Fr1.pdf?alt=media",
		},
		{
			name: "unknown category echoes key",
			bs:   &bucketService{},
			cat:  BucketCategory("other"),
			key:  "x",
			want: "x",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bs.GetPublicURL(tc.cat, tc.key); got != tc.want {
				t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"reports/a/1.PDF":      "application/pdf",
		"logos/acme.png?v=2":   "image/png",
		"logos/acme.JPEG":      "image/jpeg",
		"seed/narratives.yml":  "application/yaml",
		"templates/report.pdf": "application/pdf",
		"unknown.bin":          "",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
