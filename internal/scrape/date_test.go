package scrape

import "testing"

func TestExtractDate(t *testing.T) {
	cases := []struct {
		name    string
		content string
		url     string
		want    string
	}{
		{
			name:    "playblackdesert last edited",
			content: "some header\nLast Edited on : Jun 12, 2025 Share\nbody",
			url:     "https://www.playblackdesert.com/wiki/detail?id=10",
			want:    "Jun 12, 2025",
		},
		{
			name:    "foundry last updated",
			content: "intro\n**Last Updated:** June 1, 2025 | Black Desert Foundry\nmore",
			url:     "https://blackdesertfoundry.com/enhancement-guide/",
			want:    "June 1, 2025",
		},
		{
			name:    "foundry last updated end of line",
			content: "**Last Updated:** March 3, 2024\nbody",
			url:     "https://blackdesertfoundry.com/guide/",
			want:    "March 3, 2024",
		},
		{
			name:    "garmoth updated",
			content: "Updated: 2025-05-20\ncontent follows",
			url:     "https://garmoth.com/guides/pve",
			want:    "2025-05-20",
		},
		{
			name:    "unknown domain",
			content: "Updated: 2025-05-20",
			url:     "https://example.com/post",
			want:    "",
		},
		{
			name:    "no date present",
			content: "just guide content",
			url:     "https://garmoth.com/guides/pve",
			want:    "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractDate(tc.content, tc.url); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
